package model

import (
	"strings"

	"github.com/google/uuid"
)

const DefaultPageSize = 5

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type Genre struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Author struct {
	ID          int    `json:"id" db:"id"`
	FirstName   string `json:"firstName" db:"first_name"`
	LastName    string `json:"lastName" db:"last_name"`
	DateOfBirth *Date  `json:"dateOfBirth" db:"date_of_birth"`
	DateOfDeath *Date  `json:"dateOfDeath" db:"date_of_death"`
}

func (a Author) String() string {
	return a.LastName + ", " + a.FirstName
}

type Book struct {
	ID         int     `json:"id" db:"id"`
	Title      string  `json:"title" db:"title"`
	AuthorID   *int    `json:"authorId" db:"author_id"`
	Summary    string  `json:"summary" db:"summary"`
	ISBN       string  `json:"isbn" db:"isbn"`
	ReleaseDay *Date   `json:"releaseDay" db:"release_day"`
	CoverImage *string `json:"coverImage" db:"cover_image"`
	Genres     []Genre `json:"genres" db:"-"`
}

// DisplayGenre lists the first three genre names.
func (b Book) DisplayGenre() string {
	names := make([]string, 0, 3)
	for i := 0; i < len(b.Genres) && i < 3; i++ {
		names = append(names, b.Genres[i].Name)
	}
	return strings.Join(names, ", ")
}

type Status string

const (
	StatusMaintenance Status = "MAINTENANCE"
	StatusOnLoan      Status = "ON_LOAN"
	StatusAvailable   Status = "AVAILABLE"
	StatusReserved    Status = "RESERVED"
)

var statusCodes = map[Status]string{
	StatusMaintenance: "m",
	StatusOnLoan:      "o",
	StatusAvailable:   "a",
	StatusReserved:    "r",
}

// Code is the one letter representation stored in the database.
func (s Status) Code() string {
	return statusCodes[s]
}

func (s Status) Valid() bool {
	_, ok := statusCodes[s]
	return ok
}

func StatusFromCode(code string) Status {
	for s, c := range statusCodes {
		if c == code {
			return s
		}
	}
	return StatusMaintenance
}

type BookInstance struct {
	ID        uuid.UUID `json:"id"`
	BookID    int       `json:"bookId"`
	BookTitle string    `json:"bookTitle,omitempty"`
	Imprint   string    `json:"imprint"`
	DueBack   *Date     `json:"dueBack"`
	Borrower  *string   `json:"borrower"`
	Status    Status    `json:"status"`
	IsOverdue bool      `json:"isOverdue"`
}

type BookDetail struct {
	Book
	Author    *Author        `json:"author"`
	Instances []BookInstance `json:"instances"`
}

type AuthorDetail struct {
	Author
	Books []Book `json:"books"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book `json:"items"`
}

type ListAuthors struct {
	Paging `json:",inline"`
	Items  []Author `json:"items"`
}

type ListInstances struct {
	Paging `json:",inline"`
	Items  []BookInstance `json:"items"`
}

type Counts struct {
	Books              int `json:"numBooks"`
	Instances          int `json:"numInstances"`
	InstancesAvailable int `json:"numInstancesAvailable"`
	Authors            int `json:"numAuthors"`
	Genres             int `json:"numGenres"`
}

type Home struct {
	Counts    `json:",inline"`
	NumVisits int `json:"numVisits"`
}
