package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindConstructors(t *testing.T) {
	cases := []struct {
		name string
		err  *AppError
		code int
	}{
		{"连接", Connection(io.EOF, "连接数据库失败"), ErrCodeConnection},
		{"查询", Selectf(io.EOF, "按书名查询图书失败: %s", "dune"), ErrCodeSelect},
		{"写入", Insert(io.EOF, "添加图书失败"), ErrCodeInsert},
		{"删除", Deletef(io.EOF, "删除图书失败: id=%d", 3), ErrCodeDelete},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.True(t, IsKind(tc.err, tc.code))
			assert.ErrorIs(t, tc.err, io.EOF, "底层原因应可通过errors.Is获取")
		})
	}
}

func TestCodeOf_OutermostWins(t *testing.T) {
	notFound := New(ErrCodeBookNotFound, "图书不存在")
	err := Deletef(notFound, "删除图书失败: id=%d", 42)

	assert.Equal(t, ErrCodeDelete, CodeOf(err))
	assert.True(t, errors.Is(err, notFound))
	assert.Equal(t, "[50013] 删除图书失败: id=42: [40402] 图书不存在", err.Error())
	assert.Equal(t, 0, CodeOf(io.EOF))
}

func TestGetAppError(t *testing.T) {
	plain := errors.New("boom")
	appErr := GetAppError(plain)
	assert.Equal(t, ErrCodeInternal, appErr.Code)
	assert.ErrorIs(t, appErr, plain)

	assert.Same(t, ErrUnauthorized, GetAppError(ErrUnauthorized))
}

func TestClientCause(t *testing.T) {
	notFound := New(ErrCodeBookNotFound, "图书不存在")

	cause := ClientCause(Deletef(notFound, "删除图书失败: id=%d", 3))
	assert.Same(t, notFound, cause)

	wrapped := fmt.Errorf("handler: %w", Insert(ErrInvalidParams, "添加书评失败"))
	assert.Same(t, ErrInvalidParams, ClientCause(wrapped))

	assert.Nil(t, ClientCause(Connection(io.EOF, "连接数据库失败")))
	assert.Nil(t, ClientCause(nil))
}
