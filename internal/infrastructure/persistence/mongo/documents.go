package mongo

import (
	"time"

	"github.com/samber/lo"

	"github.com/xiebiao/booksdb/internal/domain/library"
)

// 集合名称
const (
	collBooks    = "books"
	collAuthors  = "authors"
	collGenres   = "genres"
	collUsers    = "users"
	collCounters = "counters"
)

// unknownUsername 书评用户已不存在时显示的用户名
const unknownUsername = "Unknown"

// bookDoc 图书文档
// 作者和类型以ID数组引用,书评直接内嵌
type bookDoc struct {
	ID        int         `bson:"_id"`
	ISBN      string      `bson:"isbn"`
	Title     string      `bson:"title"`
	Publisher string      `bson:"publisher"`
	AddedBy   *int        `bson:"added_by"`
	AuthorIDs []int       `bson:"author_ids"`
	GenreIDs  []int       `bson:"genre_ids"`
	Reviews   []reviewDoc `bson:"reviews"`
}

// reviewDoc 内嵌书评
type reviewDoc struct {
	Rating int       `bson:"rating"`
	Text   string    `bson:"text,omitempty"`
	Date   time.Time `bson:"date"`
	UserID int       `bson:"user_id"`
}

type authorDoc struct {
	ID        int        `bson:"_id"`
	Name      string     `bson:"name"`
	Birthdate *time.Time `bson:"birthdate,omitempty"`
	AddedBy   *int       `bson:"added_by"`
}

type genreDoc struct {
	ID   int    `bson:"_id"`
	Name string `bson:"name"`
}

type userDoc struct {
	ID       int    `bson:"_id"`
	Username string `bson:"username"`
	Password string `bson:"password"`
}

// idDoc 只投影_id的查询结果
type idDoc struct {
	ID int `bson:"_id"`
}

// counterDoc 序列计数器,_id形如"books_id"
type counterDoc struct {
	ID  string `bson:"_id"`
	Seq int    `bson:"seq"`
}

// newBookDoc 领域实体 → 文档
// 数组字段必须是空数组而不是null,否则$push和$in会失败
func newBookDoc(id int, b *library.Book) bookDoc {
	return bookDoc{
		ID:        id,
		ISBN:      b.ISBN,
		Title:     b.Title,
		Publisher: b.Publisher,
		AddedBy:   userID(b.AddedBy),
		AuthorIDs: lo.Map(b.Authors, func(a *library.Author, _ int) int { return a.ID }),
		GenreIDs:  lo.Map(b.Genres, func(g *library.Genre, _ int) int { return g.ID }),
		Reviews:   []reviewDoc{},
	}
}

func userID(u *library.User) *int {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

// userLookup 批量查询到的用户
type userLookup map[int]*library.User

// get 返回用户副本,不存在时返回"Unknown"
func (l userLookup) get(id int) *library.User {
	if u, ok := l[id]; ok {
		return u.Clone()
	}
	return library.NewUser(id, unknownUsername)
}

// ref 可空外键 → 用户
func (l userLookup) ref(id *int) *library.User {
	if id == nil {
		return nil
	}
	return l.get(*id)
}

func toAuthor(d authorDoc, users userLookup) *library.Author {
	return &library.Author{
		ID:        d.ID,
		Name:      d.Name,
		Birthdate: d.Birthdate,
		AddedBy:   users.ref(d.AddedBy),
	}
}

func toReview(bookID int, d reviewDoc, users userLookup) *library.Review {
	return &library.Review{
		BookID: bookID,
		User:   users.get(d.UserID),
		Rating: d.Rating,
		Text:   d.Text,
		Date:   d.Date,
	}
}

// rating 文档中书评的平均分,没有书评时为0
func (d bookDoc) rating() float64 {
	if len(d.Reviews) == 0 {
		return 0
	}
	sum := lo.SumBy(d.Reviews, func(r reviewDoc) int { return r.Rating })
	return float64(sum) / float64(len(d.Reviews))
}
