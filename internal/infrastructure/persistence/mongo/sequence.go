package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// counterSequence 基于counters集合的自增序列
// 一次findOneAndUpdate完成"自增并返回新值",计数器不存在时由upsert创建,
// 服务端保证单文档更新的原子性,所以并发调用不会拿到相同的值
type counterSequence struct {
	coll *mongo.Collection
}

func newCounterSequence(db *mongo.Database) counterSequence {
	return counterSequence{coll: db.Collection(collCounters)}
}

// Next 返回name序列的下一个值(从1开始)
func (s counterSequence) Next(ctx context.Context, name string) (int, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counterDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": name + "_id"},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, err
	}
	return c.Seq, nil
}
