package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"inventory-marketplace/internal/auth"
	"inventory-marketplace/internal/catalog"
	"inventory-marketplace/internal/domain"
	"inventory-marketplace/internal/importer"
	"inventory-marketplace/internal/inventory"
	"inventory-marketplace/internal/market"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
)

// CategoryService is the category tree as seen by the handlers.
type CategoryService interface {
	Create(ctx context.Context, req catalog.CreateCategoryRequest) (*domain.CategoryNode, error)
	Get(ctx context.Context, id int64) (*domain.CategoryNode, error)
	Subtree(ctx context.Context, id int64) ([]domain.CategoryNode, error)
	List(ctx context.Context) ([]domain.CategoryNode, error)
	Update(ctx context.Context, id int64, req catalog.UpdateCategoryRequest) (*domain.CategoryNode, error)
	Delete(ctx context.Context, id int64) error
}

type AuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error)
	Me(ctx context.Context, userID int64) (*domain.User, error)
	Authenticate(token string) (domain.Principal, error)
}

type InventoryService interface {
	CreateItem(ctx context.Context, userID int64, req inventory.ItemRequest) (*domain.Item, error)
	GetItem(ctx context.Context, id, userID int64) (*domain.Item, error)
	ListItems(ctx context.Context, userID int64, req inventory.ListItemsRequest) ([]domain.ItemView, error)
	UpdateItem(ctx context.Context, id, userID int64, req inventory.ItemRequest) (*domain.Item, error)
	DeleteItem(ctx context.Context, id, userID int64) error

	RateItem(ctx context.Context, itemID, userID int64, req inventory.RatingRequest) (*domain.Rating, error)
	ListItemRatings(ctx context.Context, itemID int64) ([]domain.RatingView, error)
	ListUserRatings(ctx context.Context, userID int64) ([]domain.RatingView, error)
	DeleteRating(ctx context.Context, itemID, userID int64) error
	ListPricePoints(ctx context.Context) ([]domain.PricePoint, error)
	TopRated(ctx context.Context, pricePointID int64, limit int) ([]domain.TopRatedItem, error)

	Stats(ctx context.Context, userID int64) (*domain.DashboardStats, error)
}

type MarketService interface {
	CreateListing(ctx context.Context, sellerID int64, req market.CreateListingRequest) (*domain.Listing, error)
	UpdateListing(ctx context.Context, listingID, sellerID int64, req market.UpdateListingRequest) (*domain.Listing, error)
	DeleteListing(ctx context.Context, listingID, sellerID int64) error
	Purchase(ctx context.Context, listingID, buyerID int64) (*domain.Transaction, error)
	GetListing(ctx context.Context, listingID int64) (*domain.ListingView, error)
	ListActive(ctx context.Context) ([]domain.ListingView, error)
	ListTransactions(ctx context.Context, userID int64) ([]domain.TransactionView, error)
	GetTransaction(ctx context.Context, id, userID int64) (*domain.TransactionView, error)
}

type ItemImporter interface {
	Import(ctx context.Context, userID int64, r io.Reader) (*importer.Result, error)
}

// Services bundles the handler dependencies.
type Services struct {
	Auth       AuthService
	Categories CategoryService
	Inventory  InventoryService
	Market     MarketService
	Importer   ItemImporter
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	svc            Services
	validate       *validator.Validate
	log            *logrus.Entry
	ids            *shortid.Shortid
	maxUploadBytes int64
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(svc Services, logger *logrus.Logger, maxUploadBytes int64) *HTTPHandler {
	validate := validator.New()
	// Report json field names in validation errors.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	ids, err := shortid.New(1, shortid.DefaultABC, rand.Uint64())
	if err != nil {
		logger.WithError(err).Panic("Failed to initialize error id generator")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &HTTPHandler{
		svc:            svc,
		validate:       validate,
		log:            logger.WithField("component", "http"),
		ids:            ids,
		maxUploadBytes: maxUploadBytes,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	ErrorID string `json:"error_id"`
}

// respondWithError maps domain errors to their status code. Anything else is
// logged and reported as a 500 without leaking the cause.
func (h *HTTPHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	errorID, _ := h.ids.Generate()
	entry := h.log.WithFields(logrus.Fields{
		"error_id": errorID,
		"method":   r.Method,
		"path":     r.URL.Path,
	}).WithError(err)

	var herr domain.HTTPError
	if errors.As(err, &herr) {
		if herr.StatusCode() >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Debug("Request rejected")
		}
		respondWithJSON(w, herr.StatusCode(), ErrorResponse{Error: herr.Error(), Kind: herr.Kind(), ErrorID: errorID})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		entry.Warn("Request timed out")
		respondWithJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out", Kind: "timeout", ErrorID: errorID})
		return
	}
	entry.Error("Request failed")
	respondWithJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: "internal", ErrorID: errorID})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(code)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
	}
}

// decode reads a JSON body into dst and runs its validate tags.
func (h *HTTPHandler) decode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Validation("", "invalid request payload: "+err.Error())
	}
	return h.check(dst)
}

// check runs the validate tags of v and reports the first failing field.
func (h *HTTPHandler) check(v interface{}) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.Validation(fe.Field(), validationMessage(fe))
	}
	return domain.Validation("", err.Error())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be no less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be no greater than %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	}
	return fmt.Sprintf("failed the %q check", fe.Tag())
}

// idParam parses a positive int64 URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation(name, "must be a positive integer")
	}
	return id, nil
}

func principal(r *http.Request) domain.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(h.Authenticate).Get("/me", h.Me)
		})

		r.Route("/ratings", func(r chi.Router) {
			r.Get("/item/{itemId}", h.ListItemRatings)
			r.Get("/top-rated/{pricePointId}", h.TopRated)
			r.Get("/price-points", h.ListPricePoints)
			r.Group(func(r chi.Router) {
				r.Use(h.Authenticate)
				r.Get("/user", h.ListUserRatings)
				r.Post("/{itemId}", h.RateItem)
				r.Delete("/{itemId}", h.DeleteRating)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.ListCategories)
				r.Get("/{categoryId}", h.GetCategory)
				r.Group(func(r chi.Router) {
					r.Use(h.RequireAdmin)
					r.Post("/", h.CreateCategory)
					r.Put("/{categoryId}", h.UpdateCategory)
					r.Delete("/{categoryId}", h.DeleteCategory)
				})
			})

			r.Route("/items", func(r chi.Router) {
				r.Get("/", h.ListItems)
				r.Post("/", h.CreateItem)
				r.Route("/{itemId}", func(r chi.Router) {
					r.Get("/", h.GetItem)
					r.Put("/", h.UpdateItem)
					r.Delete("/", h.DeleteItem)
					r.Post("/rate", h.RateItem)
					r.Get("/ratings", h.ListItemRatings)
				})
			})

			r.Route("/marketplace", func(r chi.Router) {
				r.Get("/", h.ListListings)
				r.Post("/", h.CreateListing)
				r.Route("/{listingId}", func(r chi.Router) {
					r.Get("/", h.GetListing)
					r.Put("/", h.UpdateListing)
					r.Delete("/", h.DeleteListing)
					r.Post("/purchase", h.PurchaseListing)
				})
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.ListTransactions)
				r.Post("/", h.CreateTransaction)
				r.Get("/{transactionId}", h.GetTransaction)
			})

			r.Get("/dashboard/stats", h.DashboardStats)

			r.With(h.RequireAdmin).Post("/admin/import-items", h.ImportItems)
		})
	})
}

func errInvalidQuery(name string) error {
	return domain.Validation(name, "invalid query parameter")
}
