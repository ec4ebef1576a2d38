package bigbooks

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/oremus-labs/bigbooks-relay/internal/relay"
)

// Response schema names.
const (
	SchemaUserDetails      = "user-details"
	SchemaBookDetails      = "book-details"
	SchemaBookOverviewList = "book-overview-list"
	SchemaBookReview       = "book-review"
	SchemaBookReviewList   = "book-review-list"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var loadSchemas = sync.OnceValues(func() (*relay.SchemaSet, error) {
	return relay.LoadSchemas(schemaFS, "schemas")
})

// Schemas returns the compiled response schemas for every endpoint.
func Schemas() (*relay.SchemaSet, error) {
	return loadSchemas()
}

// API wraps the BigBooks endpoints. Each method is a single relayed call made
// with the credentials it is given.
type API struct {
	client *relay.Client
}

// NewAPI returns an API bound to client. The client should carry Schemas().
func NewAPI(client *relay.Client) *API {
	return &API{client: client}
}

// NewClient builds a relay client for baseURL with the BigBooks schemas loaded.
func NewClient(opts relay.Options) (*relay.Client, error) {
	schemas, err := Schemas()
	if err != nil {
		return nil, err
	}
	opts.Schemas = schemas
	return relay.New(opts)
}

func (a *API) GetUserDetails(ctx context.Context, creds relay.Credentials, key int) relay.Envelope[UserDetails] {
	return relay.Do[UserDetails](ctx, a.client, relay.Operation{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/accounts/%d", key),
		Schema: SchemaUserDetails,
	}, creds)
}

// GetCurrentUserDetails returns the account the credentials belong to.
func (a *API) GetCurrentUserDetails(ctx context.Context, creds relay.Credentials) relay.Envelope[UserDetails] {
	return relay.Do[UserDetails](ctx, a.client, relay.Operation{
		Method: http.MethodGet,
		Path:   "/api/users",
		Schema: SchemaUserDetails,
	}, creds)
}

func (a *API) AddUser(ctx context.Context, creds relay.Credentials, user UserAddUpdate) relay.Envelope[UserDetails] {
	return relay.Do[UserDetails](ctx, a.client, relay.Operation{
		Method: http.MethodPost,
		Path:   "/api/accounts",
		Body:   user,
		Schema: SchemaUserDetails,
	}, creds)
}

// UpdateUser patches account key. Blank email, name and password are left unchanged by the server.
func (a *API) UpdateUser(ctx context.Context, creds relay.Credentials, key int, user UserAddUpdate) relay.Envelope[UserDetails] {
	return relay.Do[UserDetails](ctx, a.client, relay.Operation{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/api/accounts/%d", key),
		Body:   user,
		Schema: SchemaUserDetails,
	}, creds)
}

func (a *API) GetBookDetails(ctx context.Context, creds relay.Credentials, key int) relay.Envelope[BookDetails] {
	return relay.Do[BookDetails](ctx, a.client, relay.Operation{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/books/%d", key),
		Schema: SchemaBookDetails,
	}, creds)
}

func (a *API) AddBook(ctx context.Context, creds relay.Credentials, b BookAddUpdate) relay.Envelope[BookDetails] {
	return relay.Do[BookDetails](ctx, a.client, relay.Operation{
		Method: http.MethodPost,
		Path:   "/api/books",
		Body:   b,
		Schema: SchemaBookDetails,
	}, creds)
}

// GetBooksByGenre lists the overview of every book in genre.
func (a *API) GetBooksByGenre(ctx context.Context, creds relay.Credentials, genre Genre) relay.Envelope[[]BookOverview] {
	return relay.Do[[]BookOverview](ctx, a.client, relay.Operation{
		Method: http.MethodGet,
		Path:   "/api/books/genre?name=" + url.QueryEscape(genre.String()),
		Schema: SchemaBookOverviewList,
	}, creds)
}

func (a *API) GetBookReviews(ctx context.Context, creds relay.Credentials, key int) relay.Envelope[[]BookReview] {
	return relay.Do[[]BookReview](ctx, a.client, relay.Operation{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/api/books/%d/reviews", key),
		Schema: SchemaBookReviewList,
	}, creds)
}

func (a *API) AddBookReview(ctx context.Context, creds relay.Credentials, key int, review BookReviewAdd) relay.Envelope[BookReview] {
	return relay.Do[BookReview](ctx, a.client, relay.Operation{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/books/%d/reviews", key),
		Body:   review,
		Schema: SchemaBookReview,
	}, creds)
}

// PurchaseBooks buys quantity copies of book key and returns the updated account.
func (a *API) PurchaseBooks(ctx context.Context, creds relay.Credentials, req PurchaseRequest) relay.Envelope[UserDetails] {
	return relay.Do[UserDetails](ctx, a.client, relay.Operation{
		Method: http.MethodPost,
		Path:   "/api/transactions/purchase",
		Body:   req,
		Schema: SchemaUserDetails,
	}, creds)
}
