package library

import (
	"time"

	"github.com/samber/lo"

	"github.com/xiebiao/booksdb/internal/domain/library"
)

// 日期统一按yyyy-MM-dd输出
const dateLayout = "2006-01-02"

// BookDTO 图书(已装配作者、类型、书评)
type BookDTO struct {
	ID        int         `json:"id"`
	ISBN      string      `json:"isbn"`
	Title     string      `json:"title"`
	Publisher string      `json:"publisher"`
	Rating    float64     `json:"rating"`
	AddedBy   string      `json:"added_by,omitempty"`
	Authors   []AuthorDTO `json:"authors"`
	Genres    []GenreDTO  `json:"genres"`
	Reviews   []ReviewDTO `json:"reviews"`
}

// AuthorDTO 作者
type AuthorDTO struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Birthdate string `json:"birthdate,omitempty"`
	AddedBy   string `json:"added_by,omitempty"`
}

// GenreDTO 类型
type GenreDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ReviewDTO 书评
type ReviewDTO struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Text     string `json:"text,omitempty"`
	Date     string `json:"date"`
}

func username(u *library.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

// ToBookDTO 实体 → DTO
func ToBookDTO(b *library.Book) BookDTO {
	return BookDTO{
		ID:        b.ID,
		ISBN:      b.ISBN,
		Title:     b.Title,
		Publisher: b.Publisher,
		Rating:    b.Rating(),
		AddedBy:   username(b.AddedBy),
		Authors:   lo.Map(b.Authors, func(a *library.Author, _ int) AuthorDTO { return ToAuthorDTO(a) }),
		Genres:    lo.Map(b.Genres, func(g *library.Genre, _ int) GenreDTO { return ToGenreDTO(g) }),
		Reviews: lo.Map(b.Reviews, func(r *library.Review, _ int) ReviewDTO {
			return ReviewDTO{
				Username: username(r.User),
				Rating:   r.Rating,
				Text:     r.Text,
				Date:     r.Date.Format(dateLayout),
			}
		}),
	}
}

// ToBookDTOs 空结果返回空切片(JSON输出[]而不是null)
func ToBookDTOs(books []*library.Book) []BookDTO {
	return lo.Map(books, func(b *library.Book, _ int) BookDTO { return ToBookDTO(b) })
}

// ToAuthorDTO 实体 → DTO
func ToAuthorDTO(a *library.Author) AuthorDTO {
	dto := AuthorDTO{ID: a.ID, Name: a.Name, AddedBy: username(a.AddedBy)}
	if a.Birthdate != nil {
		dto.Birthdate = a.Birthdate.Format(dateLayout)
	}
	return dto
}

// ToGenreDTO 实体 → DTO
func ToGenreDTO(g *library.Genre) GenreDTO {
	return GenreDTO{ID: g.ID, Name: g.Name}
}

// ParseDate 解析yyyy-MM-dd,空串返回nil
func ParseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
