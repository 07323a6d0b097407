// Package authz 实现基于角色与归属关系的纯授权判定,不持有任何 I/O。
package authz

// Role 表示用户在系统中的角色。
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleAuthor Role = "author"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleAuthor:
		return true
	}
	return false
}

// Action 枚举所有需要授权的操作。
type Action string

const (
	ActionCreateContent  Action = "create_content"
	ActionEditContent    Action = "edit_content"
	ActionDeleteContent  Action = "delete_content"
	ActionPublishContent Action = "publish_content"
	ActionTaxonomyCreate Action = "taxonomy_create"
	ActionTaxonomyUpdate Action = "taxonomy_update"
	ActionTaxonomyDelete Action = "taxonomy_delete"
)

// DenyReason 是拒绝授权时对外暴露的机器可读原因。
type DenyReason string

const (
	ReasonInactive         DenyReason = "inactive"
	ReasonNotOwner         DenyReason = "not_owner"
	ReasonRoleInsufficient DenyReason = "role_insufficient"
	ReasonAdminOnly        DenyReason = "admin_only"
)

// Actor 是已完成身份验证的用户视图。
type Actor struct {
	ID     uint
	Role   Role
	Active bool
}

// Resource 描述被操作的内容条目,目前只有归属关系参与判定。
type Resource struct {
	OwnerID uint
}

// Decision 是授权判定的结果。拒绝时附带原因、所需角色集合与实际角色,
// 供边界层拼装稳定的错误响应。
type Decision struct {
	Allowed  bool
	Reason   DenyReason
	Required []Role
	Actual   Role
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason DenyReason, actual Role, required ...Role) Decision {
	return Decision{Reason: reason, Required: required, Actual: actual}
}

// Authorize 按固定优先级的判定表给出授权结论:
//
//  1. 未激活账号拒绝一切操作;
//  2. 创建内容与创建分类/标签对所有激活用户开放;
//  3. 编辑/发布内容允许 admin、editor,author 仅限本人的内容;
//  4. 删除内容允许 admin 与内容归属人,editor 没有越权删除的权限;
//  5. 删除分类/标签仅限 admin,不存在归属豁免;
//  6. 修改分类/标签仅限 admin 与 editor。
//
// editor 可编辑、可发布却不可删除是有意的信任边界,不是判定表的疏漏。
// resource 仅在操作指向已有内容时提供,其余操作传 nil。
func Authorize(actor Actor, action Action, resource *Resource) Decision {
	if !actor.Active {
		return deny(ReasonInactive, actor.Role)
	}

	switch action {
	case ActionCreateContent, ActionTaxonomyCreate:
		return allow()

	case ActionEditContent, ActionPublishContent:
		if actor.Role == RoleAdmin || actor.Role == RoleEditor {
			return allow()
		}
		if actor.Role == RoleAuthor && resource != nil && actor.ID == resource.OwnerID {
			return allow()
		}
		if actor.Role == RoleAuthor {
			return deny(ReasonNotOwner, actor.Role, RoleAdmin, RoleEditor)
		}
		return deny(ReasonRoleInsufficient, actor.Role, RoleAdmin, RoleEditor)

	case ActionDeleteContent:
		if actor.Role == RoleAdmin {
			return allow()
		}
		if resource != nil && actor.ID == resource.OwnerID {
			return allow()
		}
		return deny(ReasonNotOwner, actor.Role, RoleAdmin)

	case ActionTaxonomyDelete:
		if actor.Role == RoleAdmin {
			return allow()
		}
		return deny(ReasonAdminOnly, actor.Role, RoleAdmin)

	case ActionTaxonomyUpdate:
		if actor.Role == RoleAdmin || actor.Role == RoleEditor {
			return allow()
		}
		return deny(ReasonRoleInsufficient, actor.Role, RoleAdmin, RoleEditor)
	}

	// 未知操作一律拒绝。
	return deny(ReasonRoleInsufficient, actor.Role)
}
