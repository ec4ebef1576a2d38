package apitest

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/oremus-labs/bigbooks-relay/internal/bigbooks"
	"golang.org/x/crypto/bcrypt"
)

type authRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

func (s *Server) authenticate(c *gin.Context) {
	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid authentication request")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct := s.findByEmail(req.UserID)
	if acct == nil {
		c.String(http.StatusUnauthorized, "User not found")
		return
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)); err != nil {
		c.String(http.StatusUnauthorized, "Invalid password")
		return
	}
	if !acct.details.IsActive {
		c.String(http.StatusUnauthorized, "User is inactive")
		return
	}

	token := uuid.NewString()
	expires := time.Now().Add(s.tokenTTL)
	s.tokens[token] = grant{userKey: acct.details.Key, expires: expires}
	s.issued = append(s.issued, token)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expiration": expires.UTC().Format(time.RFC3339),
		"error":      "",
	})
}

func caller(c *gin.Context) *account {
	acct, _ := c.Get("account")
	return acct.(*account)
}

func keyParam(c *gin.Context) (int, bool) {
	key, err := strconv.Atoi(c.Param("key"))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid key %q", c.Param("key"))
		return 0, false
	}
	return key, true
}

func (s *Server) getAccount(c *gin.Context) {
	key, ok := keyParam(c)
	if !ok {
		return
	}
	me := caller(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	if me.details.Role != bigbooks.RoleAdmin && me.details.Key != key {
		c.String(http.StatusForbidden, "Forbidden")
		return
	}
	acct, found := s.usersByKey[key]
	if !found {
		c.String(http.StatusNotFound, "User key %d not found", key)
		return
	}
	c.JSON(http.StatusOK, acct.details)
}

func (s *Server) currentUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, caller(c).details)
}

func (s *Server) addAccount(c *gin.Context) {
	if caller(c).details.Role != bigbooks.RoleAdmin {
		c.String(http.StatusForbidden, "Forbidden")
		return
	}
	var req bigbooks.UserAddUpdate
	if err := c.ShouldBindJSON(&req); err != nil || req.UserEmail == "" || req.Password == "" {
		c.String(http.StatusBadRequest, "Invalid account")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findByEmail(req.UserEmail) != nil {
		c.String(http.StatusBadRequest, "Duplicate user email %s", req.UserEmail)
		return
	}
	s.nextKey++
	acct := &account{
		details: bigbooks.UserDetails{
			Key:          s.nextKey,
			Role:         req.Role,
			UserEmail:    req.UserEmail,
			UserName:     req.UserName,
			IsActive:     req.IsActive,
			Wallet:       req.Wallet,
			Transactions: []bigbooks.Transaction{},
		},
		passwordHash: hash,
	}
	s.usersByKey[acct.details.Key] = acct
	c.JSON(http.StatusCreated, acct.details)
}

func (s *Server) updateAccount(c *gin.Context) {
	key, ok := keyParam(c)
	if !ok {
		return
	}
	if caller(c).details.Role != bigbooks.RoleAdmin {
		c.String(http.StatusForbidden, "Forbidden")
		return
	}
	var req bigbooks.UserAddUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid account")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, found := s.usersByKey[key]
	if !found {
		c.String(http.StatusNotFound, "User key %d not found", key)
		return
	}
	if req.UserEmail != "" {
		acct.details.UserEmail = req.UserEmail
	}
	if req.UserName != "" {
		acct.details.UserName = req.UserName
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		acct.passwordHash = hash
	}
	acct.details.Role = req.Role
	acct.details.IsActive = req.IsActive
	acct.details.Wallet = req.Wallet
	c.JSON(http.StatusOK, acct.details)
}

// getBookOrGenre serves both /books/:key and /books/genre?name=.
func (s *Server) getBookOrGenre(c *gin.Context) {
	if c.Param("key") == "genre" {
		s.booksByGenre(c)
		return
	}
	key, ok := keyParam(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.books[key]
	if !found {
		c.String(http.StatusNotFound, "Book key %d not found", key)
		return
	}
	c.JSON(http.StatusOK, b.details)
}

func (s *Server) booksByGenre(c *gin.Context) {
	genre, err := bigbooks.ParseGenre(c.Query("name"))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid genre %s", c.Query("name"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	list := []bigbooks.BookOverview{}
	for _, b := range s.books {
		if b.details.Genre == genre {
			list = append(list, bigbooks.BookOverview{
				Key:    b.details.Key,
				Title:  b.details.Title,
				Author: b.details.Author,
				Genre:  b.details.Genre,
				Rating: b.details.Rating,
			})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	c.JSON(http.StatusOK, list)
}

func (s *Server) addBook(c *gin.Context) {
	if caller(c).details.Role != bigbooks.RoleAdmin {
		c.String(http.StatusForbidden, "Forbidden")
		return
	}
	var req bigbooks.BookAddUpdate
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.String(http.StatusBadRequest, "Invalid book")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextKey++
	b := &book{details: bigbooks.BookDetails{
		Key:         s.nextKey,
		Title:       req.Title,
		Author:      req.Author,
		Isbn:        req.Isbn,
		Description: req.Description,
		Genre:       req.Genre,
		Price:       req.Price,
		InStock:     req.StockQuantity,
	}}
	s.books[b.details.Key] = b
	c.JSON(http.StatusCreated, b.details)
}

func (s *Server) getReviews(c *gin.Context) {
	key, ok := keyParam(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.books[key]
	if !found {
		c.String(http.StatusNotFound, "Book key %d not found", key)
		return
	}
	reviews := append([]bigbooks.BookReview{}, b.reviews...)
	c.JSON(http.StatusOK, reviews)
}

func (s *Server) addReview(c *gin.Context) {
	key, ok := keyParam(c)
	if !ok {
		return
	}
	var req bigbooks.BookReviewAdd
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "Invalid review")
		return
	}
	if req.Score < 1 || req.Score > 10 {
		c.String(http.StatusBadRequest, "Score must be between 1 and 10")
		return
	}
	me := caller(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.books[key]
	if !found {
		c.String(http.StatusNotFound, "Book key %d not found", key)
		return
	}
	user := me.details.UserName
	if req.IsAnonymous {
		user = "Anonymous"
	}
	s.nextKey++
	review := bigbooks.BookReview{
		ReviewKey:   s.nextKey,
		BookTitle:   b.details.Title,
		Score:       req.Score,
		ReviewDate:  time.Now().UTC().Format(time.RFC3339),
		User:        user,
		Description: req.Description,
	}
	b.reviews = append(b.reviews, review)
	b.details.Reviews = len(b.reviews)
	total := 0
	for _, r := range b.reviews {
		total += r.Score
	}
	rating := float64(total) / float64(len(b.reviews))
	b.details.Rating = &rating
	c.JSON(http.StatusCreated, review)
}

func (s *Server) purchase(c *gin.Context) {
	var req bigbooks.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RequestedQuantity <= 0 {
		c.String(http.StatusBadRequest, "Invalid purchase request")
		return
	}
	me := caller(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.books[req.BookKey]
	if !found {
		c.String(http.StatusNotFound, "Book key %d not found", req.BookKey)
		return
	}
	if b.details.InStock < req.RequestedQuantity {
		c.String(http.StatusBadRequest, "Insufficient stock for book %d", req.BookKey)
		return
	}
	cost := b.details.Price * float64(req.RequestedQuantity)
	if me.details.Wallet < cost {
		c.String(http.StatusBadRequest, "Insufficient funds: %s", fmt.Sprintf("%.2f", me.details.Wallet))
		return
	}
	b.details.InStock -= req.RequestedQuantity
	me.details.Wallet -= cost
	s.nextKey++
	bookKey, qty := req.BookKey, req.RequestedQuantity
	me.details.Transactions = append(me.details.Transactions, bigbooks.Transaction{
		TransactionKey:     s.nextKey,
		TransactionDate:    time.Now().UTC().Format(time.RFC3339),
		TransactionType:    bigbooks.TransactionPurchase,
		TransactionAccount: me.details.Key,
		PurchaseBookKey:    &bookKey,
		PurchaseQuantity:   &qty,
	})
	c.JSON(http.StatusOK, me.details)
}
