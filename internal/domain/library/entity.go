package library

import (
	"time"
)

// UnsavedID 尚未持久化的实体ID
// 实体创建时使用该值,AddBook/AddAuthor/AddGenre成功后由存储分配真实ID并回写
const UnsavedID = -1

// User 用户实体
// 只保留身份信息,密码只存在于存储层,不进入领域模型
type User struct {
	ID       int
	Username string
}

// NewUser 创建用户
func NewUser(id int, username string) *User {
	return &User{ID: id, Username: username}
}

// Author 作者实体
// Birthdate可选,AddedBy记录添加该作者的用户(可能为空)
type Author struct {
	ID        int
	Name      string
	Birthdate *time.Time
	AddedBy   *User
}

// NewAuthor 创建未持久化的作者
func NewAuthor(name string, birthdate *time.Time, addedBy *User) *Author {
	return &Author{ID: UnsavedID, Name: name, Birthdate: birthdate, AddedBy: addedBy}
}

// Genre 类型实体
type Genre struct {
	ID   int
	Name string
}

// NewGenre 创建未持久化的类型
func NewGenre(name string) *Genre {
	return &Genre{ID: UnsavedID, Name: name}
}

// Review 书评实体(创建后不可修改)
// 业务规则:Rating取值范围[1,5],Text为空表示没有评论文字
type Review struct {
	BookID int
	User   *User
	Rating int
	Text   string
	Date   time.Time
}

// Book 图书实体(聚合根)
// DDD设计说明:
// 1. Book聚合了作者、类型和书评,从存储读出的Book总是完整装配(hydrated)
// 2. Authors和Genres保持添加图书时的顺序
// 3. 评分不存储,由Reviews实时计算(见Rating)
// 4. ISBN在模型中不要求唯一
type Book struct {
	ID        int
	ISBN      string
	Title     string
	Publisher string
	AddedBy   *User
	Authors   []*Author
	Genres    []*Genre
	Reviews   []*Review
}

// NewBook 创建未持久化的图书(工厂方法)
func NewBook(isbn, title, publisher string, addedBy *User) *Book {
	return &Book{
		ID:        UnsavedID,
		ISBN:      isbn,
		Title:     title,
		Publisher: publisher,
		AddedBy:   addedBy,
		Authors:   []*Author{},
		Genres:    []*Genre{},
		Reviews:   []*Review{},
	}
}

// AddAuthor 追加作者(保持顺序)
func (b *Book) AddAuthor(a *Author) {
	b.Authors = append(b.Authors, a)
}

// AddGenre 追加类型(保持顺序)
func (b *Book) AddGenre(g *Genre) {
	b.Genres = append(b.Genres, g)
}

// Rating 派生评分:所有书评评分的算术平均值,没有书评时为0
func (b *Book) Rating() float64 {
	if len(b.Reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range b.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(b.Reviews))
}

// IsSaved 是否已持久化
func (b *Book) IsSaved() bool {
	return b.ID != UnsavedID
}

// HasUnsavedRefs 是否引用了尚未持久化的作者或类型
// 关联只能指向已存在的记录
func (b *Book) HasUnsavedRefs() bool {
	for _, a := range b.Authors {
		if a.ID == UnsavedID {
			return true
		}
	}
	for _, g := range b.Genres {
		if g.ID == UnsavedID {
			return true
		}
	}
	return false
}

// Today 书评日期:当天零点(本地时区)
func Today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// ValidRating 检查评分是否在[1,5]范围内
func ValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}

// =========================================
// 深拷贝
// =========================================
// 内存存储和测试需要隔离调用方持有的实体与存储内部状态

// Clone 深拷贝用户
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Clone 深拷贝作者
func (a *Author) Clone() *Author {
	if a == nil {
		return nil
	}
	c := *a
	if a.Birthdate != nil {
		d := *a.Birthdate
		c.Birthdate = &d
	}
	c.AddedBy = a.AddedBy.Clone()
	return &c
}

// Clone 深拷贝类型
func (g *Genre) Clone() *Genre {
	if g == nil {
		return nil
	}
	c := *g
	return &c
}

// Clone 深拷贝书评
func (r *Review) Clone() *Review {
	if r == nil {
		return nil
	}
	c := *r
	c.User = r.User.Clone()
	return &c
}

// Clone 深拷贝图书(包括作者、类型、书评)
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	c.AddedBy = b.AddedBy.Clone()
	c.Authors = make([]*Author, 0, len(b.Authors))
	for _, a := range b.Authors {
		c.Authors = append(c.Authors, a.Clone())
	}
	c.Genres = make([]*Genre, 0, len(b.Genres))
	for _, g := range b.Genres {
		c.Genres = append(c.Genres, g.Clone())
	}
	c.Reviews = make([]*Review, 0, len(b.Reviews))
	for _, r := range b.Reviews {
		c.Reviews = append(c.Reviews, r.Clone())
	}
	return &c
}
