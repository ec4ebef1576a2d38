package bigbooks

// UserDetails is the account view returned by the accounts and users endpoints.
type UserDetails struct {
	Key          int           `json:"key"`
	Role         UserRole      `json:"role"`
	UserEmail    string        `json:"userEmail"`
	UserName     string        `json:"userName"`
	IsActive     bool          `json:"isActive"`
	Wallet       float64       `json:"wallet"`
	Transactions []Transaction `json:"transactions"`
}

// UserAddUpdate is the body for account creation and updates.
type UserAddUpdate struct {
	UserEmail string   `json:"userEmail"`
	UserName  string   `json:"userName"`
	Password  string   `json:"password"`
	Role      UserRole `json:"role"`
	IsActive  bool     `json:"isActive"`
	Wallet    float64  `json:"wallet"`
}

// Transaction is one wallet movement on an account.
type Transaction struct {
	TransactionKey     int             `json:"transactionKey"`
	TransactionDate    string          `json:"transactionDate"`
	TransactionType    TransactionType `json:"transactionType"`
	TransactionAccount int             `json:"transactionAccount"`
	PurchaseBookKey    *int            `json:"purchaseBookKey,omitempty"`
	PurchaseQuantity   *int            `json:"purchaseQuantity,omitempty"`
}

// PurchaseRequest is the body of a book purchase.
type PurchaseRequest struct {
	BookKey           int `json:"bookKey"`
	RequestedQuantity int `json:"requestedQuantity"`
}

// BookDetails is the full view of a single book.
type BookDetails struct {
	Key         int      `json:"key"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Isbn        string   `json:"isbn"`
	Description string   `json:"description"`
	Genre       Genre    `json:"genre"`
	Price       float64  `json:"price"`
	InStock     int      `json:"inStock"`
	Rating      *float64 `json:"rating,omitempty"`
	Reviews     int      `json:"reviews"`
}

// BookOverview is the list view used by genre queries.
type BookOverview struct {
	Key    int      `json:"key"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Genre  Genre    `json:"genre"`
	Rating *float64 `json:"rating,omitempty"`
}

// BookAddUpdate is the body for book creation.
type BookAddUpdate struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Isbn          string  `json:"isbn"`
	Description   string  `json:"description"`
	Genre         Genre   `json:"genre"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
}

// BookReview is a stored review.
type BookReview struct {
	ReviewKey   int    `json:"reviewKey"`
	BookTitle   string `json:"bookTitle"`
	Score       int    `json:"score"`
	ReviewDate  string `json:"reviewDate"`
	User        string `json:"user"`
	Description string `json:"description"`
}

// BookReviewAdd is the body for posting a review.
type BookReviewAdd struct {
	Score       int    `json:"score"`
	IsAnonymous bool   `json:"isAnonymous"`
	Description string `json:"description"`
}
