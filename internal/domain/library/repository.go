package library

import (
	"context"
)

//go:generate mockgen -source=repository.go -destination=mocks/repository.go -package=mocks

// Repository 图书目录数据访问契约(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,MySQL/MongoDB/内存三种实现位于infrastructure层
// 2. 所有实现遵守同一套语义:查询结果按图书ID升序并完整装配,
//    查不到返回空切片而不是错误
// 3. 返回的错误最外层一定是四种类别之一:
//    ErrCodeConnection / ErrCodeSelect / ErrCodeInsert / ErrCodeDelete
// 4. Connect之前调用任何数据操作都返回包装ErrNotConnected的连接错误
type Repository interface {
	// Connect 连接存储,重复调用是空操作;locator为空时使用适配器默认地址
	Connect(ctx context.Context, locator string) error

	// Disconnect 断开连接,重复调用是空操作
	Disconnect(ctx context.Context) error

	// Login 校验用户名和密码,不匹配时返回nil, nil
	Login(ctx context.Context, username, password string) (*User, error)

	// FindBooksByTitle 书名包含子串(不区分大小写)
	FindBooksByTitle(ctx context.Context, title string) ([]*Book, error)

	// FindBooksByIsbn ISBN精确匹配(不区分大小写,去除首尾空白)
	FindBooksByIsbn(ctx context.Context, isbn string) ([]*Book, error)

	// FindBooksByAuthor 任一作者姓名包含子串(不区分大小写)
	FindBooksByAuthor(ctx context.Context, name string) ([]*Book, error)

	// FindBooksByGenre 任一类型名称精确匹配(不区分大小写)
	FindBooksByGenre(ctx context.Context, genre string) ([]*Book, error)

	// FindBooksByRating 派生评分 >= min 的图书;没有书评的图书只在min <= 0时返回
	FindBooksByRating(ctx context.Context, min float64) ([]*Book, error)

	// AddBook 原子地写入图书及其作者/类型关联,成功后把新ID写回book.ID
	AddBook(ctx context.Context, book *Book) error

	// AddAuthor 写入作者,成功后把新ID写回author.ID
	AddAuthor(ctx context.Context, author *Author) error

	// AddGenre 写入类型,成功后把新ID写回genre.ID
	AddGenre(ctx context.Context, genre *Genre) error

	// AddReview 以当前日期为book添加一条书评,评分必须在[1,5]
	AddReview(ctx context.Context, book *Book, user *User, rating int, text string) error

	// GetAllAuthors 所有作者,按姓名升序
	GetAllAuthors(ctx context.Context) ([]*Author, error)

	// GetAllGenres 所有类型,按名称升序
	GetAllGenres(ctx context.Context) ([]*Genre, error)

	// RemoveBook 按ID删除图书,ID不存在时返回包装ErrBookNotFound的删除错误
	RemoveBook(ctx context.Context, book *Book) error
}
