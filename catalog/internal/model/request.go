package model

type GenreRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type AuthorRequest struct {
	FirstName   string `json:"firstName" validate:"required,max=100"`
	LastName    string `json:"lastName" validate:"required,max=100"`
	DateOfBirth *Date  `json:"dateOfBirth"`
	DateOfDeath *Date  `json:"dateOfDeath"`
}

type BookRequest struct {
	Title      string  `json:"title" validate:"required,max=200"`
	AuthorID   *int    `json:"authorId" validate:"omitempty,gt=0"`
	Summary    string  `json:"summary" validate:"max=1000"`
	ISBN       string  `json:"isbn" validate:"required,len=13,numeric"`
	GenreIDs   []int   `json:"genreIds" validate:"dive,gt=0"`
	ReleaseDay *Date   `json:"releaseDay"`
	CoverImage *string `json:"coverImage" validate:"omitempty,max=500"`
}

// InstanceRequest creates or edits a copy. ON_LOAN is reached only through borrowing.
type InstanceRequest struct {
	BookID  int    `json:"bookId" validate:"required,gt=0"`
	Imprint string `json:"imprint" validate:"required,max=200"`
	Status  Status `json:"status" validate:"omitempty,oneof=MAINTENANCE AVAILABLE RESERVED"`
	DueBack *Date  `json:"dueBack"`
}

type BorrowRequest struct {
	DueBack Date `json:"dueBack"`
}

type RenewRequest struct {
	RenewalDate Date `json:"renewalDate"`
}

type ProposedDate struct {
	Instance     BookInstance `json:"instance"`
	ProposedDate Date         `json:"proposedDate"`
}
