// Package market drives the design marketplace: browsing the catalog,
// downloading free products, custom orders and the creator's product forms.
package market

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

// CatalogAPI is the part of the backend the catalog reads.
type CatalogAPI interface {
	Products(ctx context.Context, q api.ProductQuery) (model.Page[model.Product], error)
	Categories(ctx context.Context) ([]model.Category, error)
}

// FileItem is one downloadable file as shown to buyers.
type FileItem struct {
	Name string `json:"name"`
	Size string `json:"size"`
	Type string `json:"type,omitempty"`
}

// ProductCard is the display form of a product.
type ProductCard struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Href         string     `json:"href"`
	Price        string     `json:"price"`
	Free         bool       `json:"free"`
	Downloads    string     `json:"downloads"`
	Creator      string     `json:"creator,omitempty"`
	Category     string     `json:"category,omitempty"`
	Cover        string     `json:"cover,omitempty"`
	Gallery      []string   `json:"gallery,omitempty"`
	Files        []FileItem `json:"files,omitempty"`
	TotalSize    string     `json:"total_size,omitempty"`
	Downloadable bool       `json:"downloadable"`
}

// CatalogView is one page of the catalog.
type CatalogView struct {
	Products   []ProductCard    `json:"products"`
	Categories []model.Category `json:"categories"`
	Pagination model.Pagination `json:"pagination"`
}

// Price renders a product price in taka.
func Price(p model.Product) string {
	if p.IsFree || p.Price == 0 {
		return "বিনামূল্যে"
	}
	return "৳ " + humanize.CommafWithDigits(p.Price, 2)
}

// Card formats p for display.  assetBase resolves relative image paths.
func Card(p model.Product, assetBase string) ProductCard {
	c := ProductCard{
		ID:           p.ID,
		Title:        p.Title,
		Slug:         p.Slug,
		Href:         "/market/products/" + p.Slug,
		Price:        Price(p),
		Free:         p.IsFree || p.Price == 0,
		Downloads:    humanize.Comma(int64(p.DownloadsCount)),
		Downloadable: p.EnableDownload,
	}
	if p.Creator != nil {
		c.Creator = p.Creator.Name
	}
	if p.Category != nil {
		c.Category = p.Category.Name
	}
	for _, img := range p.PreviewImages {
		c.Gallery = append(c.Gallery, api.AssetURL(assetBase, img.URL))
	}
	if len(c.Gallery) > 0 {
		c.Cover = c.Gallery[0]
	}
	var total uint64
	for _, f := range p.Files {
		size := uint64(max(f.Size, 0))
		total += size
		c.Files = append(c.Files, FileItem{Name: f.Name, Size: humanize.Bytes(size), Type: f.Mime})
	}
	if len(p.Files) > 0 {
		c.TotalSize = humanize.Bytes(total)
	}
	return c
}

// LoadCatalog fetches products and categories concurrently.  A failed
// category fetch leaves the filter empty; a failed product fetch is
// returned.
func LoadCatalog(ctx context.Context, b CatalogAPI, q api.ProductQuery, assetBase string, log logging.Logger) (CatalogView, error) {
	log = logging.OrNoOp(log)
	var (
		v    CatalogView
		page model.Page[model.Product]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = b.Products(gctx, q)
		if err != nil {
			return fmt.Errorf("market: products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		cats, err := b.Categories(gctx)
		if err != nil {
			log.Warn("market: categories failed", "error", err)
			return nil
		}
		v.Categories = cats
		return nil
	})
	if err := g.Wait(); err != nil {
		return CatalogView{}, err
	}
	v.Pagination = page.Pagination
	v.Products = make([]ProductCard, 0, len(page.Items))
	for _, p := range page.Items {
		v.Products = append(v.Products, Card(p, assetBase))
	}
	return v, nil
}
