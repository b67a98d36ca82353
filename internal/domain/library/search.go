package library

import (
	"strconv"
	"strings"
)

// SearchMode 搜索方式
type SearchMode string

const (
	SearchByTitle  SearchMode = "title"
	SearchByIsbn   SearchMode = "isbn"
	SearchByAuthor SearchMode = "author"
	SearchByGenre  SearchMode = "genre"
	SearchByRating SearchMode = "rating"
)

// SearchModes 所有搜索方式(界面展示顺序)
var SearchModes = []SearchMode{SearchByTitle, SearchByIsbn, SearchByAuthor, SearchByGenre, SearchByRating}

// ParseSearchMode 解析搜索方式(不区分大小写),空字符串默认按书名搜索
func ParseSearchMode(s string) (SearchMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SearchByTitle, nil
	}
	for _, m := range SearchModes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrInvalidSearchMode
}

// parseRatingQuery 评分搜索输入必须是整数
func parseRatingQuery(q string) (float64, error) {
	n, err := strconv.Atoi(q)
	if err != nil {
		return 0, ErrInvalidRatingQuery
	}
	return float64(n), nil
}
