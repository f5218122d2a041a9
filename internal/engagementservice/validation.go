package engagementservice

import (
	"github.com/sushihentaime/inkwell/internal/common"
)

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(v.CheckStringLength(content, 1, maxCommentLength), "content", "must not be more than 5000 characters long")
}

func validateParentID(v *common.Validator, parentID *int) {
	if parentID == nil {
		return
	}
	v.Check(*parentID > 0, "parent_id", "must be greater than zero")
}
