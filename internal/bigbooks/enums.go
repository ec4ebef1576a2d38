package bigbooks

import (
	"fmt"
	"strings"
)

// UserRole mirrors the API's account roles.
type UserRole int

const (
	RoleCustomer UserRole = 0
	RoleAdmin    UserRole = -1
)

func (r UserRole) String() string {
	switch r {
	case RoleCustomer:
		return "Customer"
	case RoleAdmin:
		return "Admin"
	default:
		return fmt.Sprintf("UserRole(%d)", int(r))
	}
}

// Genre mirrors the API's book genres. Values are fixed by the server.
type Genre int

const (
	GenreUndefined Genre = -1
	GenreFiction   Genre = 1
	GenreChildrens Genre = 2
	GenreFantasy   Genre = 3
	GenreMystery   Genre = 4
	GenreHistory   Genre = 5
	GenreBiography Genre = 7
	GenreHobbies   Genre = 8
	GenreSelfHelp  Genre = 9
	GenreRomance   Genre = 10
)

var genreNames = map[Genre]string{
	GenreUndefined: "Undefined",
	GenreFiction:   "Fiction",
	GenreChildrens: "Childrens",
	GenreFantasy:   "Fantasy",
	GenreMystery:   "Mystery",
	GenreHistory:   "History",
	GenreBiography: "Biography",
	GenreHobbies:   "Hobbies",
	GenreSelfHelp:  "SelfHelp",
	GenreRomance:   "Romance",
}

func (g Genre) String() string {
	if name, ok := genreNames[g]; ok {
		return name
	}
	return fmt.Sprintf("Genre(%d)", int(g))
}

// ParseGenre resolves a genre name case-insensitively.
func ParseGenre(name string) (Genre, error) {
	for g, n := range genreNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return g, nil
		}
	}
	return GenreUndefined, fmt.Errorf("unknown genre %q", name)
}

// TransactionType mirrors the API's wallet transaction kinds.
type TransactionType int

const (
	TransactionPurchase TransactionType = -1
	TransactionDeposit  TransactionType = -2
)

func (t TransactionType) String() string {
	switch t {
	case TransactionPurchase:
		return "Purchase"
	case TransactionDeposit:
		return "Deposit"
	default:
		return fmt.Sprintf("TransactionType(%d)", int(t))
	}
}
