package mysql

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// 查询构建
// 所有图书搜索共用同一个基础查询(图书 LEFT JOIN 添加者),只替换WHERE谓词,
// 结果按图书ID升序,保证各后端的返回顺序一致

// bookQuery 图书基础查询
func bookQuery() sq.SelectBuilder {
	return sq.Select(
		"b.id", "b.isbn", "b.title", "b.publisher",
		"b.added_by", "u.username AS added_by_username",
	).
		From("books b").
		LeftJoin("users u ON b.added_by = u.id").
		OrderBy("b.id")
}

// likeEscaper 转义LIKE通配符,子串按字面匹配
// 转义字符用'!':反斜杠在MySQL字符串字面量里本身需要转义,SQLite的ESCAPE又只接受单个字符
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern 包含子串的LIKE模式,配合ESCAPE '!'使用
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// titleLike 书名包含子串(不区分大小写)
func titleLike(title string) sq.Sqlizer {
	return sq.Expr("LOWER(b.title) LIKE LOWER(?) ESCAPE '!'", containsPattern(title))
}

// isbnEquals ISBN精确匹配(不区分大小写)
func isbnEquals(isbn string) sq.Sqlizer {
	return sq.Expr("LOWER(b.isbn) = LOWER(?)", isbn)
}

// authorLike 任一作者姓名包含子串
// 用子查询而不是JOIN,避免多个作者匹配时图书重复
func authorLike(name string) sq.Sqlizer {
	sub := sq.Select("ba.book_id").
		From("book_authors ba").
		Join("authors a ON a.id = ba.author_id").
		Where("LOWER(a.name) LIKE LOWER(?) ESCAPE '!'", containsPattern(name))
	return inSubquery("b.id", sub)
}

// genreEquals 任一类型名称精确匹配
func genreEquals(genre string) sq.Sqlizer {
	sub := sq.Select("bg.book_id").
		From("book_genres bg").
		Join("genres g ON g.id = bg.genre_id").
		Where("LOWER(g.name) = LOWER(?)", genre)
	return inSubquery("b.id", sub)
}

// ratingAtLeast 平均评分 >= min
// min <= 0 时没有书评的图书也满足,直接返回全部
func ratingAtLeast(min float64) sq.Sqlizer {
	if min <= 0 {
		return sq.Expr("1 = 1")
	}
	sub := sq.Select("book_id").
		From("reviews").
		GroupBy("book_id").
		Having("AVG(rating) >= ?", min)
	return inSubquery("b.id", sub)
}

// inSubquery 构造 col IN (子查询),子查询参数由squirrel展开
func inSubquery(col string, sub sq.SelectBuilder) sq.Sqlizer {
	return sq.Expr(col+" IN (?)", sub)
}

// authorsOfBook 图书的作者(按添加顺序)及作者的添加者
func authorsOfBook(bookID int) sq.SelectBuilder {
	return sq.Select(
		"a.id", "a.name", "a.birthdate",
		"a.added_by", "u.username AS added_by_username",
	).
		From("authors a").
		Join("book_authors ba ON ba.author_id = a.id").
		LeftJoin("users u ON a.added_by = u.id").
		Where(sq.Eq{"ba.book_id": bookID}).
		OrderBy("ba.position", "a.id")
}

// genresOfBook 图书的类型(按添加顺序)
func genresOfBook(bookID int) sq.SelectBuilder {
	return sq.Select("g.id", "g.name").
		From("genres g").
		Join("book_genres bg ON bg.genre_id = g.id").
		Where(sq.Eq{"bg.book_id": bookID}).
		OrderBy("bg.position", "g.id")
}

// reviewsOfBook 图书的书评及评论用户,按日期、写入顺序排列
func reviewsOfBook(bookID int) sq.SelectBuilder {
	return sq.Select(
		"r.book_id", "r.rating", "r.review_text", "r.review_date",
		"r.user_id", "u.username",
	).
		From("reviews r").
		LeftJoin("users u ON r.user_id = u.id").
		Where(sq.Eq{"r.book_id": bookID}).
		OrderBy("r.review_date", "r.id")
}

// allAuthors 全部作者,按姓名升序
func allAuthors() sq.SelectBuilder {
	return sq.Select(
		"a.id", "a.name", "a.birthdate",
		"a.added_by", "u.username AS added_by_username",
	).
		From("authors a").
		LeftJoin("users u ON a.added_by = u.id").
		OrderBy("a.name", "a.id")
}
