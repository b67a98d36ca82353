package mysql

import (
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/xiebiao/booksdb/internal/domain/library"
)

// unknownUsername 书评用户已不存在时显示的用户名
const unknownUsername = "Unknown"

// 查询结果行(列名按GORM命名策略映射)

type bookRow struct {
	ID              int
	ISBN            string
	Title           string
	Publisher       string
	AddedBy         *int
	AddedByUsername *string
}

type authorRow struct {
	ID              int
	Name            string
	Birthdate       *time.Time
	AddedBy         *int
	AddedByUsername *string
}

type genreRow struct {
	ID   int
	Name string
}

type reviewRow struct {
	BookID     int
	Rating     int
	ReviewText *string
	ReviewDate time.Time
	UserID     int
	Username   *string
}

// scan 执行squirrel构建的查询并扫描到dest
func scan(db *gorm.DB, q sq.SelectBuilder, dest interface{}) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	return db.Raw(query, args...).Scan(dest).Error
}

// hydrate 装配一本图书:作者、类型、书评
func hydrate(db *gorm.DB, row bookRow) (*library.Book, error) {
	b := &library.Book{
		ID:        row.ID,
		ISBN:      row.ISBN,
		Title:     row.Title,
		Publisher: row.Publisher,
		AddedBy:   toUser(row.AddedBy, row.AddedByUsername),
	}

	var authors []authorRow
	if err := scan(db, authorsOfBook(row.ID), &authors); err != nil {
		return nil, err
	}
	b.Authors = toAuthors(authors)

	var genres []genreRow
	if err := scan(db, genresOfBook(row.ID), &genres); err != nil {
		return nil, err
	}
	b.Genres = make([]*library.Genre, 0, len(genres))
	for _, g := range genres {
		b.Genres = append(b.Genres, &library.Genre{ID: g.ID, Name: g.Name})
	}

	var reviews []reviewRow
	if err := scan(db, reviewsOfBook(row.ID), &reviews); err != nil {
		return nil, err
	}
	b.Reviews = make([]*library.Review, 0, len(reviews))
	for _, rv := range reviews {
		name := unknownUsername
		if rv.Username != nil {
			name = *rv.Username
		}
		text := ""
		if rv.ReviewText != nil {
			text = *rv.ReviewText
		}
		b.Reviews = append(b.Reviews, &library.Review{
			BookID: rv.BookID,
			User:   library.NewUser(rv.UserID, name),
			Rating: rv.Rating,
			Text:   text,
			Date:   rv.ReviewDate,
		})
	}

	return b, nil
}

func toAuthors(rows []authorRow) []*library.Author {
	authors := make([]*library.Author, 0, len(rows))
	for _, a := range rows {
		authors = append(authors, &library.Author{
			ID:        a.ID,
			Name:      a.Name,
			Birthdate: a.Birthdate,
			AddedBy:   toUser(a.AddedBy, a.AddedByUsername),
		})
	}
	return authors
}

// toUser 可空外键 + 用户名 → 用户
func toUser(id *int, username *string) *library.User {
	if id == nil {
		return nil
	}
	u := &library.User{ID: *id}
	if username != nil {
		u.Username = *username
	}
	return u
}

// userID 用户 → 可空外键
func userID(u *library.User) *int {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func trim(s string) string {
	return strings.TrimSpace(s)
}
