package dto

// HTTP层请求DTO
// binding tag只校验格式,业务规则(评分范围、名称唯一、引用存在)由领域层和存储层负责

// SearchBooksQuery 图书搜索参数
// mode: title | isbn | author | genre | rating,为空时按书名
type SearchBooksQuery struct {
	Mode  string `form:"mode" binding:"omitempty,max=20" example:"title"`
	Query string `form:"q" binding:"required,max=200" example:"databases"`
}

// AddBookRequest 添加图书,作者和类型以ID引用
type AddBookRequest struct {
	ISBN      string `json:"isbn" binding:"max=20" example:"9780131103627"`
	Title     string `json:"title" binding:"required,max=200" example:"Databases Illuminated"`
	Publisher string `json:"publisher" binding:"max=100" example:"Jones & Bartlett"`
	AuthorIDs []int  `json:"author_ids" binding:"omitempty,dive,gt=0" example:"1,2"`
	GenreIDs  []int  `json:"genre_ids" binding:"omitempty,dive,gt=0" example:"1"`
}

// AddReviewRequest 评分
type AddReviewRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5" example:"4"`
	Text   string `json:"text" binding:"max=2000" example:"值得一读"`
}

// AddAuthorRequest 添加作者
type AddAuthorRequest struct {
	Name      string `json:"name" binding:"required,max=100" example:"Kazuo Ishiguro"`
	Birthdate string `json:"birthdate" binding:"omitempty,datetime=2006-01-02" example:"1954-11-08"`
}

// AddGenreRequest 添加类型
type AddGenreRequest struct {
	Name string `json:"name" binding:"required,max=50" example:"Drama"`
}
