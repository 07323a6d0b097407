package authz

import "testing"

func TestAuthorizeInactiveActorDeniedEverything(t *testing.T) {
	actor := Actor{ID: 1, Role: RoleAdmin, Active: false}
	actions := []Action{
		ActionCreateContent,
		ActionEditContent,
		ActionDeleteContent,
		ActionPublishContent,
		ActionTaxonomyCreate,
		ActionTaxonomyUpdate,
		ActionTaxonomyDelete,
	}

	for _, action := range actions {
		decision := Authorize(actor, action, &Resource{OwnerID: 1})
		if decision.Allowed {
			t.Fatalf("expected deny for inactive actor on %s", action)
		}
		if decision.Reason != ReasonInactive {
			t.Fatalf("expected reason inactive on %s, got %s", action, decision.Reason)
		}
	}
}

func TestAuthorizeCreateAllowedForAnyActiveRole(t *testing.T) {
	for _, role := range []Role{RoleAdmin, RoleEditor, RoleAuthor} {
		actor := Actor{ID: 7, Role: role, Active: true}
		if d := Authorize(actor, ActionCreateContent, nil); !d.Allowed {
			t.Fatalf("expected allow create_content for %s, got deny(%s)", role, d.Reason)
		}
		if d := Authorize(actor, ActionTaxonomyCreate, nil); !d.Allowed {
			t.Fatalf("expected allow taxonomy_create for %s, got deny(%s)", role, d.Reason)
		}
	}
}

func TestAuthorizeAuthorCannotEditForeignPost(t *testing.T) {
	actor := Actor{ID: 2, Role: RoleAuthor, Active: true}
	resource := &Resource{OwnerID: 9}

	decision := Authorize(actor, ActionEditContent, resource)
	if decision.Allowed {
		t.Fatal("expected deny for author editing foreign post")
	}
	if decision.Reason != ReasonNotOwner {
		t.Fatalf("expected reason not_owner, got %s", decision.Reason)
	}
	if decision.Actual != RoleAuthor {
		t.Fatalf("expected actual role author, got %s", decision.Actual)
	}
}

func TestAuthorizeAuthorEditsOwnPost(t *testing.T) {
	actor := Actor{ID: 2, Role: RoleAuthor, Active: true}
	resource := &Resource{OwnerID: 2}

	for _, action := range []Action{ActionEditContent, ActionPublishContent, ActionDeleteContent} {
		if d := Authorize(actor, action, resource); !d.Allowed {
			t.Fatalf("expected allow %s for owning author, got deny(%s)", action, d.Reason)
		}
	}
}

func TestAuthorizeEditorEditsButNeverDeletes(t *testing.T) {
	actor := Actor{ID: 3, Role: RoleEditor, Active: true}
	resource := &Resource{OwnerID: 9}

	if d := Authorize(actor, ActionEditContent, resource); !d.Allowed {
		t.Fatalf("expected editor edit allow, got deny(%s)", d.Reason)
	}
	if d := Authorize(actor, ActionPublishContent, resource); !d.Allowed {
		t.Fatalf("expected editor publish allow, got deny(%s)", d.Reason)
	}

	decision := Authorize(actor, ActionDeleteContent, resource)
	if decision.Allowed {
		t.Fatal("editor must not delete foreign posts")
	}
	if decision.Reason != ReasonNotOwner {
		t.Fatalf("expected reason not_owner, got %s", decision.Reason)
	}
}

func TestAuthorizeEditorDeletesOwnPost(t *testing.T) {
	// 删除的归属豁免不区分角色:editor 删除自己的内容走 owner 分支。
	actor := Actor{ID: 3, Role: RoleEditor, Active: true}
	if d := Authorize(actor, ActionDeleteContent, &Resource{OwnerID: 3}); !d.Allowed {
		t.Fatalf("expected allow for owner delete, got deny(%s)", d.Reason)
	}
}

func TestAuthorizeAdminDoesEverything(t *testing.T) {
	actor := Actor{ID: 1, Role: RoleAdmin, Active: true}
	resource := &Resource{OwnerID: 42}

	actions := []Action{
		ActionCreateContent,
		ActionEditContent,
		ActionDeleteContent,
		ActionPublishContent,
		ActionTaxonomyCreate,
		ActionTaxonomyUpdate,
		ActionTaxonomyDelete,
	}
	for _, action := range actions {
		if d := Authorize(actor, action, resource); !d.Allowed {
			t.Fatalf("expected allow %s for admin, got deny(%s)", action, d.Reason)
		}
	}
}

func TestAuthorizeTaxonomyDeleteAdminOnly(t *testing.T) {
	for _, role := range []Role{RoleEditor, RoleAuthor} {
		actor := Actor{ID: 5, Role: role, Active: true}
		decision := Authorize(actor, ActionTaxonomyDelete, nil)
		if decision.Allowed {
			t.Fatalf("expected deny taxonomy_delete for %s", role)
		}
		if decision.Reason != ReasonAdminOnly {
			t.Fatalf("expected reason admin_only, got %s", decision.Reason)
		}
		if len(decision.Required) != 1 || decision.Required[0] != RoleAdmin {
			t.Fatalf("expected required roles [admin], got %v", decision.Required)
		}
	}
}

func TestAuthorizeTaxonomyUpdateNeedsEditorOrAdmin(t *testing.T) {
	actor := Actor{ID: 5, Role: RoleAuthor, Active: true}
	decision := Authorize(actor, ActionTaxonomyUpdate, nil)
	if decision.Allowed {
		t.Fatal("author must not update taxonomy terms")
	}
	if decision.Reason != ReasonRoleInsufficient {
		t.Fatalf("expected reason role_insufficient, got %s", decision.Reason)
	}

	editor := Actor{ID: 6, Role: RoleEditor, Active: true}
	if d := Authorize(editor, ActionTaxonomyUpdate, nil); !d.Allowed {
		t.Fatalf("expected allow taxonomy_update for editor, got deny(%s)", d.Reason)
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleAdmin.Valid() || !RoleEditor.Valid() || !RoleAuthor.Valid() {
		t.Fatal("known roles must be valid")
	}
	if Role("superuser").Valid() {
		t.Fatal("unknown role must be invalid")
	}
}
