package mysql

import (
	"errors"
	"strings"

	drivermysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlErrDuplicateEntry MySQL错误码 1062: Duplicate entry 'xxx' for key 'yyy'
const mysqlErrDuplicateEntry = 1062

// isDuplicateError 判断是否为唯一索引冲突错误
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	// TranslateError开启后，MySQL和SQLite驱动的冲突错误都会翻译成ErrDuplicatedKey
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *drivermysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlErrDuplicateEntry
	}
	// 兼容检查:错误信息包含"Duplicate entry"(MySQL)或"UNIQUE constraint failed"(SQLite)
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

// nullableText 空字符串存为NULL
func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
