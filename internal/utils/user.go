package utils

import (
	"strings"

	"campuslink/internal/models"
)

// AnonymousName is shown whenever a comment or post has no attributable
// author, whether by choice or because the account was deleted.
const AnonymousName = "Anonymous"

// DisplayName 计算内容作者的显示名
// 匿名内容和作者已注销的内容显示为同一个名字，对外不可区分
func DisplayName(user *models.User, anonymous bool) string {
	if anonymous || user == nil {
		return AnonymousName
	}

	// Fields 折叠姓名内部和两端的空白，避免出现不规则空格
	parts := strings.Fields(user.FirstName + " " + user.LastName)
	if len(parts) == 0 {
		return AnonymousName
	}
	return strings.Join(parts, " ")
}
