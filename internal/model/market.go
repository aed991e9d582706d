package model

import "time"

// Category groups marketplace products.
type Category struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Banner        string `json:"banner,omitempty"`
	ProductsCount int    `json:"products_count,omitempty"`
}

// Creator is a marketplace user permitted to upload design products.
type Creator struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// PreviewImage is one gallery image of a product.
type PreviewImage struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// ProductFile describes a downloadable asset attached to a product.
type ProductFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime_type,omitempty"`
}

// Product is a design listed on the marketplace.
type Product struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Slug           string         `json:"slug"`
	Description    string         `json:"description"`
	Price          float64        `json:"price"`
	IsFree         bool           `json:"is_free"`
	EnableDownload bool           `json:"enable_download"`
	CategoryID     int64          `json:"category_id"`
	Category       *Category      `json:"category,omitempty"`
	Creator        *Creator       `json:"creator,omitempty"`
	PreviewImages  []PreviewImage `json:"preview_images,omitempty"`
	Files          []ProductFile  `json:"files,omitempty"`
	DownloadsCount int            `json:"downloads_count"`
	CreatedAt      *time.Time     `json:"created_at,omitempty"`
}

// DownloadRequest is the buyer's download form.
type DownloadRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// DownloadGrant is the backend's answer to a DownloadRequest.
type DownloadGrant struct {
	EnableDownload bool     `json:"enable_download"`
	DownloadURLs   []string `json:"download_urls"`
	Message        string   `json:"message,omitempty"`
}

// CustomOrder is a buyer request for a modified version of a product.
type CustomOrder struct {
	ID          int64      `json:"id"`
	ProductID   int64      `json:"product_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Description string     `json:"description"`
	Budget      float64    `json:"budget,omitempty"`
	Status      string     `json:"status,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// CreatorStats feeds the creator dashboard.
type CreatorStats struct {
	TotalProducts  int     `json:"total_products"`
	TotalDownloads int     `json:"total_downloads"`
	TotalEarnings  float64 `json:"total_earnings"`
	PendingOrders  int     `json:"pending_orders"`
}
