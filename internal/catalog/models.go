package catalog

// volumesResponse is the shape of the catalog's volumes search response.
type volumesResponse struct {
	TotalItems int          `json:"totalItems"`
	Items      []volumeItem `json:"items"`
}

type volumeItem struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type volumeInfo struct {
	Title       string      `json:"title"`
	Authors     []string    `json:"authors"`
	Description string      `json:"description"`
	ImageLinks  *imageLinks `json:"imageLinks"`
	InfoLink    string      `json:"infoLink"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}
