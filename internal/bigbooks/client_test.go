package bigbooks_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oremus-labs/bigbooks-relay/internal/apitest"
	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"github.com/oremus-labs/bigbooks-relay/internal/relay"
	"github.com/oremus-labs/bigbooks-relay/internal/store/storetest"
)

var (
	adminCreds    = relay.Credentials{UserID: "admin@demo", Password: storetest.DefaultPassword}
	customerCreds = relay.Credentials{UserID: "Savannah.Miller@demo.com", Password: storetest.DefaultPassword}
)

func newAPI(t *testing.T) (*apitest.Server, *bigbooks.API) {
	t.Helper()
	srv := apitest.New(t, apitest.WithUsers(storetest.Users), apitest.WithBooks(storetest.Books))
	client, err := bigbooks.NewClient(relay.Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return srv, bigbooks.NewAPI(client)
}

func TestSchemasLoad(t *testing.T) {
	t.Parallel()
	set, err := bigbooks.Schemas()
	if err != nil {
		t.Fatalf("Schemas returned error: %v", err)
	}
	for _, name := range []string{
		bigbooks.SchemaUserDetails,
		bigbooks.SchemaBookDetails,
		bigbooks.SchemaBookOverviewList,
		bigbooks.SchemaBookReview,
		bigbooks.SchemaBookReviewList,
	} {
		if !set.Has(name) {
			t.Fatalf("schema %s missing", name)
		}
	}
}

func TestUserEndpoints(t *testing.T) {
	t.Parallel()
	_, api := newAPI(t)
	ctx := context.Background()

	env := api.GetUserDetails(ctx, adminCreds, 22)
	if !env.OK() || env.Data.UserEmail != "Savannah.Miller@demo.com" {
		t.Fatalf("unexpected user envelope %+v", env)
	}

	me := api.GetCurrentUserDetails(ctx, customerCreds)
	if !me.OK() || me.Data.Key != 22 {
		t.Fatalf("unexpected current user %+v", me)
	}

	forbidden := api.GetUserDetails(ctx, customerCreds, 3)
	if forbidden.Status != http.StatusForbidden || !errors.Is(forbidden.Err(), relay.ErrStatus) {
		t.Fatalf("expected 403, got %+v", forbidden)
	}

	added := api.AddUser(ctx, adminCreds, bigbooks.UserAddUpdate{
		UserEmail: "Noah.Patel@demo.com",
		UserName:  "Noah Patel",
		Password:  storetest.DefaultPassword,
		IsActive:  true,
		Wallet:    50,
	})
	if added.Status != http.StatusCreated || !added.OK() {
		t.Fatalf("unexpected add result %+v", added)
	}

	updated := api.UpdateUser(ctx, adminCreds, added.Data.Key, bigbooks.UserAddUpdate{
		UserName: "Noah P.",
		IsActive: true,
		Wallet:   75,
	})
	if !updated.OK() {
		t.Fatalf("update failed: %v", updated.Err())
	}
	want := bigbooks.UserDetails{
		Key:          added.Data.Key,
		Role:         bigbooks.RoleCustomer,
		UserEmail:    "Noah.Patel@demo.com",
		UserName:     "Noah P.",
		IsActive:     true,
		Wallet:       75,
		Transactions: []bigbooks.Transaction{},
	}
	if diff := cmp.Diff(want, *updated.Data); diff != "" {
		t.Fatalf("updated user mismatch (-want +got):\n%s", diff)
	}

	// the new account authenticates with its own credentials
	self := api.GetCurrentUserDetails(ctx, relay.Credentials{UserID: "Noah.Patel@demo.com", Password: storetest.DefaultPassword})
	if !self.OK() || self.Data.Key != added.Data.Key {
		t.Fatalf("new account cannot authenticate: %+v", self)
	}
}

func TestBookEndpoints(t *testing.T) {
	t.Parallel()
	srv, api := newAPI(t)
	ctx := context.Background()

	book := api.GetBookDetails(ctx, customerCreds, 12)
	if !book.OK() || book.Data.Title != "The Hobbit" {
		t.Fatalf("unexpected book %+v", book)
	}

	added := api.AddBook(ctx, adminCreds, bigbooks.BookAddUpdate{
		Title:         "Piranesi",
		Author:        "Susanna Clarke",
		Genre:         bigbooks.GenreFantasy,
		Price:         14.25,
		StockQuantity: 4,
	})
	if added.Status != http.StatusCreated || added.Data.InStock != 4 {
		t.Fatalf("unexpected add book result %+v", added)
	}

	fantasy := api.GetBooksByGenre(ctx, customerCreds, bigbooks.GenreFantasy)
	if !fantasy.OK() {
		t.Fatalf("genre query failed: %v", fantasy.Err())
	}
	var titles []string
	for _, b := range *fantasy.Data {
		titles = append(titles, b.Title)
	}
	if diff := cmp.Diff([]string{"The Hobbit", "The Name of the Wind", "Piranesi"}, titles); diff != "" {
		t.Fatalf("genre titles mismatch (-want +got):\n%s", diff)
	}

	empty := api.GetBooksByGenre(ctx, customerCreds, bigbooks.GenreRomance)
	if !empty.OK() || len(*empty.Data) != 0 {
		t.Fatalf("expected empty genre list, got %+v", empty)
	}

	if got := srv.Hits(apitest.RouteGetBook); got != 3 {
		t.Fatalf("expected 3 GET /books/:key hits, got %d", got)
	}
}

func TestReviewEndpoints(t *testing.T) {
	t.Parallel()
	_, api := newAPI(t)
	ctx := context.Background()

	review := api.AddBookReview(ctx, customerCreds, 6, bigbooks.BookReviewAdd{Score: 9, IsAnonymous: true, Description: "Lovely."})
	if review.Status != http.StatusCreated || review.Data.User != "Anonymous" || review.Data.BookTitle != "A Gentleman in Moscow" {
		t.Fatalf("unexpected review %+v", review)
	}

	list := api.GetBookReviews(ctx, customerCreds, 6)
	if !list.OK() || len(*list.Data) != 1 {
		t.Fatalf("unexpected review list %+v", list)
	}
	if diff := cmp.Diff(*review.Data, (*list.Data)[0]); diff != "" {
		t.Fatalf("review mismatch (-posted +listed):\n%s", diff)
	}

	missing := api.GetBookReviews(ctx, customerCreds, 404)
	if missing.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %+v", missing)
	}
}

func TestPurchaseBooks(t *testing.T) {
	t.Parallel()
	_, api := newAPI(t)
	ctx := context.Background()

	env := api.PurchaseBooks(ctx, customerCreds, bigbooks.PurchaseRequest{BookKey: 6, RequestedQuantity: 2})
	if !env.OK() {
		t.Fatalf("purchase failed: %v", env.Err())
	}
	if len(env.Data.Transactions) != 1 || *env.Data.Transactions[0].PurchaseQuantity != 2 {
		t.Fatalf("unexpected transactions %+v", env.Data.Transactions)
	}

	book := api.GetBookDetails(ctx, customerCreds, 6)
	if book.Data.InStock != 6 {
		t.Fatalf("expected stock 6 after purchase, got %d", book.Data.InStock)
	}
}

func TestGenreParsing(t *testing.T) {
	t.Parallel()
	g, err := bigbooks.ParseGenre(" selfhelp ")
	if err != nil || g != bigbooks.GenreSelfHelp {
		t.Fatalf("expected SelfHelp, got %v %v", g, err)
	}
	if _, err := bigbooks.ParseGenre("Cooking"); err == nil {
		t.Fatal("expected error for unknown genre")
	}
	if got := bigbooks.Genre(6).String(); got != "Genre(6)" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := bigbooks.RoleAdmin.String(); got != "Admin" {
		t.Fatalf("unexpected role name %q", got)
	}
}
