package mongo

import (
	"context"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xiebiao/booksdb/internal/domain/library"
)

// hydrate 装配一本图书
// 查询顺序固定:作者、类型、用户(添加者 + 作者添加者 + 书评用户),
// 引用列表为空时跳过对应查询
func hydrate(ctx context.Context, db *mongo.Database, d bookDoc) (*library.Book, error) {
	authors, err := findAuthors(ctx, db, d.AuthorIDs)
	if err != nil {
		return nil, err
	}
	genres, err := findGenres(ctx, db, d.GenreIDs)
	if err != nil {
		return nil, err
	}

	userIDs := make([]int, 0, 1+len(authors)+len(d.Reviews))
	if d.AddedBy != nil {
		userIDs = append(userIDs, *d.AddedBy)
	}
	for _, a := range authors {
		if a.AddedBy != nil {
			userIDs = append(userIDs, *a.AddedBy)
		}
	}
	for _, rv := range d.Reviews {
		userIDs = append(userIDs, rv.UserID)
	}
	users, err := lookupUsers(ctx, db, userIDs)
	if err != nil {
		return nil, err
	}

	b := &library.Book{
		ID:        d.ID,
		ISBN:      d.ISBN,
		Title:     d.Title,
		Publisher: d.Publisher,
		AddedBy:   users.ref(d.AddedBy),
		Authors:   lo.Map(authors, func(a authorDoc, _ int) *library.Author { return toAuthor(a, users) }),
		Genres: lo.Map(genres, func(g genreDoc, _ int) *library.Genre {
			return &library.Genre{ID: g.ID, Name: g.Name}
		}),
		Reviews: lo.Map(d.Reviews, func(rv reviewDoc, _ int) *library.Review { return toReview(d.ID, rv, users) }),
	}
	return b, nil
}

// findAuthors 批量查询作者,按引用顺序返回,已删除的引用被跳过
func findAuthors(ctx context.Context, db *mongo.Database, ids []int) ([]authorDoc, error) {
	if len(ids) == 0 {
		return []authorDoc{}, nil
	}
	var docs []authorDoc
	if err := findAll(ctx, db.Collection(collAuthors), bson.M{"_id": bson.M{"$in": ids}}, byID(), &docs); err != nil {
		return nil, err
	}
	return inRefOrder(ids, docs, func(a authorDoc) int { return a.ID }), nil
}

// findGenres 批量查询类型,按引用顺序返回
func findGenres(ctx context.Context, db *mongo.Database, ids []int) ([]genreDoc, error) {
	if len(ids) == 0 {
		return []genreDoc{}, nil
	}
	var docs []genreDoc
	if err := findAll(ctx, db.Collection(collGenres), bson.M{"_id": bson.M{"$in": ids}}, byID(), &docs); err != nil {
		return nil, err
	}
	return inRefOrder(ids, docs, func(g genreDoc) int { return g.ID }), nil
}

// lookupUsers 批量查询用户
func lookupUsers(ctx context.Context, db *mongo.Database, ids []int) (userLookup, error) {
	ids = lo.Uniq(ids)
	users := make(userLookup, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	var docs []userDoc
	if err := findAll(ctx, db.Collection(collUsers), bson.M{"_id": bson.M{"$in": ids}}, byID(), &docs); err != nil {
		return nil, err
	}
	for _, u := range docs {
		users[u.ID] = library.NewUser(u.ID, u.Username)
	}
	return users, nil
}

// inRefOrder 按引用ID的顺序重排查询结果
func inRefOrder[T any](ids []int, docs []T, key func(T) int) []T {
	byKey := lo.KeyBy(docs, key)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if d, ok := byKey[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
