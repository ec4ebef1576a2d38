// Package apitest runs an in-process stand-in for the BigBooks API so relay
// and CLI code can be exercised without the real server. It records every
// routed call, every issued token and every bearer token it sees.
package apitest

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// Route keys accepted by Hits and FailNext.
const (
	RouteAuthenticate  = "POST /api/authentication/authenticate"
	RouteGetAccount    = "GET /api/accounts/:key"
	RouteAddAccount    = "POST /api/accounts"
	RouteUpdateAccount = "PATCH /api/accounts/:key"
	RouteCurrentUser   = "GET /api/users"
	RouteGetBook       = "GET /api/books/:key"
	RouteAddBook       = "POST /api/books"
	RouteGetReviews    = "GET /api/books/:key/reviews"
	RouteAddReview     = "POST /api/books/:key/reviews"
	RoutePurchase      = "POST /api/transactions/purchase"
)

type account struct {
	details      bigbooks.UserDetails
	passwordHash []byte
}

type book struct {
	details bigbooks.BookDetails
	reviews []bigbooks.BookReview
}

type grant struct {
	userKey int
	expires time.Time
}

type injectedResponse struct {
	status int
	body   string
}

// Server is a running API double.
type Server struct {
	URL string

	srv      *httptest.Server
	tokenTTL time.Duration

	mu         sync.Mutex
	usersByKey map[int]*account
	books      map[int]*book
	tokens     map[string]grant
	issued     []string
	bearers    []string
	hits       map[string]int
	injected   map[string]injectedResponse
	nextKey    int
}

// Option customizes a Server.
type Option func(*options)

type options struct {
	users    []store.User
	books    []store.Book
	tokenTTL time.Duration
}

// WithUsers seeds the accounts; passwords are the plaintext values on the records.
func WithUsers(users []store.User) Option {
	return func(o *options) { o.users = users }
}

// WithBooks seeds the books.
func WithBooks(books []store.Book) Option {
	return func(o *options) { o.books = books }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *options) { o.tokenTTL = ttl }
}

// New starts a Server and stops it when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	o := options{tokenTTL: time.Hour}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		tokenTTL:   o.tokenTTL,
		usersByKey: map[int]*account{},
		books:      map[int]*book{},
		tokens:     map[string]grant{},
		hits:       map[string]int{},
		injected:   map[string]injectedResponse{},
		nextKey:    1000,
	}
	for _, u := range o.users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash password for %s: %v", u.UserEmail, err)
		}
		s.usersByKey[u.Key] = &account{
			details: bigbooks.UserDetails{
				Key:          u.Key,
				Role:         u.Role,
				UserEmail:    u.UserEmail,
				UserName:     u.UserName,
				IsActive:     u.IsActive,
				Wallet:       u.Wallet,
				Transactions: []bigbooks.Transaction{},
			},
			passwordHash: hash,
		}
	}
	for _, b := range o.books {
		s.books[b.Key] = &book{details: bigbooks.BookDetails{
			Key:         b.Key,
			Title:       b.Title,
			Author:      b.Author,
			Isbn:        b.Isbn,
			Description: b.Description,
			Genre:       b.Genre,
			Price:       b.Price,
			InStock:     b.StockQuantity,
		}}
	}

	s.srv = httptest.NewServer(s.router())
	s.URL = s.srv.URL
	t.Cleanup(s.srv.Close)
	return s
}

// Close stops the server early, e.g. to provoke transport failures.
func (s *Server) Close() {
	s.srv.Close()
}

// Hits returns how often route was called.
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// TargetHits returns the number of calls to any route except authentication.
func (s *Server) TargetHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for route, n := range s.hits {
		if route != RouteAuthenticate {
			total += n
		}
	}
	return total
}

// IssuedTokens returns the tokens handed out, in order.
func (s *Server) IssuedTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.issued...)
}

// BearerTokens returns the bearer tokens presented on target routes, in order.
func (s *Server) BearerTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bearers...)
}

// FailNext makes the next call to route answer with status and body.
func (s *Server) FailNext(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injected[route] = injectedResponse{status: status, body: body}
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(requestLogger())
	r.Use(s.hitCounter())

	api := r.Group("/api")
	api.POST("/authentication/authenticate", s.authenticate)

	secured := api.Group("", s.bearerAuth())
	secured.GET("/accounts/:key", s.getAccount)
	secured.POST("/accounts", s.addAccount)
	secured.PATCH("/accounts/:key", s.updateAccount)
	secured.GET("/users", s.currentUser)
	secured.GET("/books/:key", s.getBookOrGenre)
	secured.POST("/books", s.addBook)
	secured.GET("/books/:key/reviews", s.getReviews)
	secured.POST("/books/:key/reviews", s.addReview)
	secured.POST("/transactions/purchase", s.purchase)
	return r
}

func (s *Server) findByEmail(email string) *account {
	for _, acct := range s.usersByKey {
		if strings.EqualFold(acct.details.UserEmail, email) {
			return acct
		}
	}
	return nil
}
