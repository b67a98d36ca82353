package library

import (
	apperrors "github.com/xiebiao/booksdb/pkg/errors"
)

// 图书目录领域错误定义
// 存储适配器返回的错误最外层是类别错误(连接/查询/写入/删除),
// 以下哨兵错误作为原因被包装在内层,调用方用errors.Is判断
var (
	// ErrNotConnected 尚未连接存储
	ErrNotConnected = apperrors.New(apperrors.ErrCodeConnection, "尚未连接数据库")

	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrInvalidRating 评分超出范围
	ErrInvalidRating = apperrors.New(apperrors.ErrCodeInvalidParams, "评分必须在1到5之间")

	// ErrDuplicate 违反唯一约束
	ErrDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "记录已存在")

	// ErrUnsavedReference 图书引用了尚未保存的作者或类型
	ErrUnsavedReference = apperrors.New(apperrors.ErrCodeInvalidParams, "关联的作者或类型尚未保存")

	// ErrNotLoggedIn 需要登录才能执行的操作
	ErrNotLoggedIn = apperrors.New(apperrors.ErrCodeUnauthorized, "请先登录")

	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = apperrors.New(apperrors.ErrCodeInvalidPassword, "用户名或密码错误")

	// ErrEmptyQuery 搜索字符串为空
	ErrEmptyQuery = apperrors.New(apperrors.ErrCodeInvalidParams, "请输入搜索内容")

	// ErrInvalidRatingQuery 按评分搜索时输入不是数字
	ErrInvalidRatingQuery = apperrors.New(apperrors.ErrCodeInvalidParams, "评分搜索需要输入数字")

	// ErrInvalidSearchMode 未知的搜索方式
	ErrInvalidSearchMode = apperrors.New(apperrors.ErrCodeInvalidParams, "不支持的搜索方式")

	// ErrTitleRequired 书名不能为空
	ErrTitleRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "书名不能为空")

	// ErrNameRequired 名称不能为空
	ErrNameRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "名称不能为空")
)
