package library

// Session 调用方会话
// 登录状态是显式的值,由表现层持有并传入Service,领域层没有全局"当前用户"
type Session struct {
	User *User
}

// NewSession 创建已登录会话
func NewSession(u *User) Session {
	return Session{User: u}
}

// LoggedIn 是否已登录
func (s Session) LoggedIn() bool {
	return s.User != nil
}
