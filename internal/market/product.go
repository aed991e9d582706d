package market

import (
	"context"
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/sync/errgroup"

	"github.com/votemamu/web/internal/api"
	"github.com/votemamu/web/internal/forms"
	"github.com/votemamu/web/internal/logging"
	"github.com/votemamu/web/internal/model"
)

const (
	MaxPreviewImages = 5
	MaxPreviewSize   = 5 << 20
	MaxProductFile   = 100 << 20
)

var (
	errPreviewNotImage = errors.New("প্রিভিউ শুধুমাত্র ছবি হতে পারে")
	errPreviewLarge    = errors.New("প্রিভিউ ছবি ৫ মেগাবাইটের বেশি")
	errFileLarge       = errors.New("ফাইল ১০০ মেগাবাইটের বেশি")
	errFileRequired    = errors.New("ডাউনলোড ফাইল দিন")
)

// ProductForm is the creator's product upload.  Preview images to add and
// ids of existing previews to drop are typed lists; they become indexed
// multipart fields only when encoded.
type ProductForm struct {
	Title                 string       `json:"title" form:"title"`
	Description           string       `json:"description" form:"description"`
	CategoryID            int64        `json:"category_id" form:"category_id"`
	Price                 float64      `json:"price" form:"price"`
	IsFree                bool         `json:"is_free" form:"is_free"`
	EnableDownload        bool         `json:"enable_download" form:"enable_download"`
	PreviewImages         []api.Upload `json:"-" form:"-"`
	RemovePreviewImageIDs []int64      `json:"remove_preview_images" form:"-"`
	File                  *api.Upload  `json:"-" form:"-"`
	// Existing is true when editing, where the file may be kept as is.
	Existing bool `json:"-" form:"-"`
}

func (f ProductForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.Length(3, 255)),
		validation.Field(&f.Description, validation.Length(0, 5000)),
		validation.Field(&f.CategoryID, validation.Required),
		validation.Field(&f.Price, validation.Min(0.0), validation.When(f.IsFree, validation.In(0.0).Error("বিনামূল্যের পণ্যের দাম থাকে না"))),
		validation.Field(&f.PreviewImages, validation.Length(0, MaxPreviewImages), validation.By(previewRule)),
		validation.Field(&f.File, validation.By(func(interface{}) error {
			if f.File.Empty() {
				if f.Existing {
					return nil
				}
				return errFileRequired
			}
			if len(f.File.Data) > MaxProductFile {
				return errFileLarge
			}
			return nil
		})),
	)
}

func previewRule(v interface{}) error {
	imgs, _ := v.([]api.Upload)
	for _, u := range imgs {
		if len(u.Data) > MaxPreviewSize {
			return errPreviewLarge
		}
		if !strings.HasPrefix(mimetype.Detect(u.Data).String(), "image/") {
			return errPreviewNotImage
		}
	}
	return nil
}

func (f ProductForm) EncodeMultipart(w *multipart.Writer) error {
	fields := &api.Fields{}
	fields.Set("title", strings.TrimSpace(f.Title)).
		Set("description", f.Description).
		SetInt("category_id", f.CategoryID).
		Set("price", strconv.FormatFloat(f.Price, 'f', -1, 64)).
		SetBool("is_free", f.IsFree).
		SetBool("enable_download", f.EnableDownload)
	removed := make([]string, len(f.RemovePreviewImageIDs))
	for i, id := range f.RemovePreviewImageIDs {
		removed[i] = strconv.FormatInt(id, 10)
	}
	fields.SetIndexed("remove_preview_images", removed)
	if err := fields.Write(w); err != nil {
		return err
	}
	for i, u := range f.PreviewImages {
		u.ContentType = sniffed(u)
		if err := api.WriteFile(w, "preview_images["+strconv.Itoa(i)+"]", u); err != nil {
			return err
		}
	}
	if !f.File.Empty() {
		u := *f.File
		u.ContentType = sniffed(u)
		return api.WriteFile(w, "file", u)
	}
	return nil
}

func sniffed(u api.Upload) string {
	if u.ContentType != "" {
		return u.ContentType
	}
	return mimetype.Detect(u.Data).String()
}

// ProductFormFrom pre-fills an edit form.  Files are never round-tripped.
func ProductFormFrom(p model.Product) ProductForm {
	return ProductForm{
		Title:          p.Title,
		Description:    p.Description,
		CategoryID:     p.CategoryID,
		Price:          p.Price,
		IsFree:         p.IsFree,
		EnableDownload: p.EnableDownload,
		Existing:       true,
	}
}

// CreatorAPI is the creator side of the backend.
type CreatorAPI interface {
	CreatorDashboard(ctx context.Context) (model.CreatorStats, error)
	CreatorProducts(ctx context.Context, page int) (model.Page[model.Product], error)
	CreateProduct(ctx context.Context, body api.MultipartEncoder) (model.Product, error)
	UpdateProduct(ctx context.Context, id int64, body api.MultipartEncoder) (model.Product, error)
}

// Dashboard is the creator's landing screen.
type Dashboard struct {
	Stats      model.CreatorStats `json:"stats"`
	Earnings   string             `json:"earnings"`
	Products   []ProductCard      `json:"products"`
	Pagination model.Pagination   `json:"pagination"`
}

// LoadDashboard fetches stats and one page of the creator's products.  Either
// half degrades to empty on failure.
func LoadDashboard(ctx context.Context, a CreatorAPI, page int, assetBase string, log logging.Logger) Dashboard {
	log = logging.OrNoOp(log)
	var d Dashboard
	var products model.Page[model.Product]
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := a.CreatorDashboard(gctx)
		if err != nil {
			log.Warn("market: dashboard stats failed", "error", err)
			return nil
		}
		d.Stats = stats
		return nil
	})
	g.Go(func() error {
		p, err := a.CreatorProducts(gctx, page)
		if err != nil {
			log.Warn("market: creator products failed", "error", err)
			return nil
		}
		products = p
		return nil
	})
	_ = g.Wait()
	d.Earnings = "৳ " + humanize.CommafWithDigits(d.Stats.TotalEarnings, 2)
	d.Pagination = products.Pagination
	d.Products = make([]ProductCard, 0, len(products.Items))
	for _, p := range products.Items {
		d.Products = append(d.Products, Card(p, assetBase))
	}
	return d
}

// SaveProduct validates f and creates the product, or updates it when id is
// non-zero.
func SaveProduct(ctx context.Context, a CreatorAPI, id int64, f ProductForm) (model.Product, error) {
	f.Existing = id != 0
	if err := forms.Check(f, "PRODUCT_FORM_INVALID"); err != nil {
		return model.Product{}, err
	}
	if id != 0 {
		return a.UpdateProduct(ctx, id, f)
	}
	return a.CreateProduct(ctx, f)
}
