package core

import (
	"errors"
	"testing"
	"time"
	"workcore/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMemberDefaultsPermissionsFromRole(t *testing.T) {
	f := newFixture(t)
	project := f.project("Team")

	mb, err := f.svc.AddMember(as(owner), project.ID, domain.MemberInput{UserID: member.ID, Role: domain.RoleMember})
	require.NoError(t, err)
	assert.True(t, mb.Permissions.CanEdit)
	assert.Equal(t, domain.MemberStatusActive, mb.Status)
	assert.Equal(t, owner.ID, mb.InvitedBy)
	assert.Equal(t, baseTime, mb.JoinedAt)

	vw, err := f.svc.AddMember(as(owner), project.PublicID, domain.MemberInput{UserID: viewer.ID, Role: domain.RoleViewer})
	require.NoError(t, err)
	assert.False(t, vw.Permissions.CanEdit)

	granted, err := f.svc.AddMember(as(owner), project.ID, domain.MemberInput{UserID: outsider.ID, Role: domain.RoleViewer, CanEdit: ptr(true)})
	require.NoError(t, err)
	assert.True(t, granted.Permissions.CanEdit)

	_, err = f.svc.UpdateProject(as(outsider), project.ID, domain.ProjectPatch{Description: ptr("granted")})
	assert.NoError(t, err)
}

func TestAddMemberRejections(t *testing.T) {
	f := newFixture(t)
	project := f.project("Team")
	f.join(project.ID, member, domain.RoleMember)

	_, err := f.svc.AddMember(as(owner), project.ID, domain.MemberInput{UserID: member.ID, Role: domain.RoleViewer})
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = f.svc.AddMember(as(owner), project.ID, domain.MemberInput{UserID: viewer.ID, Role: domain.RoleOwner})
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	_, err = f.svc.AddMember(as(owner), project.ID, domain.MemberInput{UserID: viewer.ID, Role: "boss"})
	assert.True(t, errors.Is(err, domain.ErrValidationFailed))

	_, err = f.svc.AddMember(as(member), project.ID, domain.MemberInput{UserID: viewer.ID, Role: domain.RoleViewer})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = f.svc.AddMember(as(owner), "missing", domain.MemberInput{UserID: viewer.ID, Role: domain.RoleViewer})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProjectAdminsManageLowerRolesOnly(t *testing.T) {
	f := newFixture(t)
	project := f.project("Admins")
	admin := domain.Principal{ID: "u-project-admin", Role: domain.SystemRoleUser}
	f.join(project.ID, admin, domain.RoleAdmin)

	_, err := f.svc.AddMember(as(admin), project.ID, domain.MemberInput{UserID: member.ID, Role: domain.RoleMember})
	require.NoError(t, err)

	_, err = f.svc.AddMember(as(admin), project.ID, domain.MemberInput{UserID: viewer.ID, Role: domain.RoleAdmin})
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	_, err = f.svc.UpdateMemberRole(as(admin), project.ID, member.ID, domain.RoleAdmin)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	updated, err := f.svc.UpdateMemberRole(as(admin), project.ID, member.ID, domain.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleViewer, updated.Role)
	assert.False(t, updated.Permissions.CanEdit)
}

func TestUpdateMemberRole(t *testing.T) {
	f := newFixture(t)
	project := f.project("Roles")
	f.join(project.ID, viewer, domain.RoleViewer)

	promoted, err := f.svc.UpdateMemberRole(as(owner), project.ID, viewer.ID, domain.RoleMember)
	require.NoError(t, err)
	assert.True(t, promoted.Permissions.CanEdit)

	_, err = f.svc.UpdateMemberRole(as(owner), project.ID, viewer.ID, domain.RoleOwner)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	_, err = f.svc.UpdateMemberRole(as(owner), project.ID, owner.ID, domain.RoleAdmin)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))
	_, err = f.svc.UpdateMemberRole(as(owner), project.ID, viewer.ID, "boss")
	assert.True(t, errors.Is(err, domain.ErrValidationFailed))
	_, err = f.svc.UpdateMemberRole(as(owner), project.ID, outsider.ID, domain.RoleMember)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	entries := f.store.ExportState().AuditLog
	last := entries[len(entries)-1]
	assert.Equal(t, ActionMemberRoleUpdated, last.Action)
	assert.Equal(t, map[string]string{"from": "viewer", "to": "member"}, last.Metadata)
	assert.Equal(t, project.ID, last.ProjectID)
}

func TestRemoveAndReaddMember(t *testing.T) {
	f := newFixture(t)
	project := f.project("Churn")
	first, err := f.svc.AddMember(as(owner), project.ID, domain.MemberInput{UserID: member.ID, Role: domain.RoleMember})
	require.NoError(t, err)

	require.NoError(t, f.svc.RemoveMember(as(owner), project.ID, member.ID))
	_, err = f.svc.GetProject(as(member), project.ID)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))

	err = f.svc.RemoveMember(as(owner), project.ID, member.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	err = f.svc.RemoveMember(as(owner), project.ID, owner.ID)
	assert.True(t, errors.Is(err, domain.ErrInvalidState))

	f.clock.Advance(time.Hour)
	again, err := f.svc.AddMember(as(owner), project.ID, domain.MemberInput{UserID: member.ID, Role: domain.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, domain.RoleViewer, again.Role)
	assert.Equal(t, baseTime.Add(time.Hour), again.JoinedAt)

	_, err = f.svc.GetProject(as(member), project.ID)
	assert.NoError(t, err)
}

func TestListMembersOrdersByRole(t *testing.T) {
	f := newFixture(t)
	project := f.project("Roster")
	admin := domain.Principal{ID: "u-project-admin", Role: domain.SystemRoleUser}
	f.join(project.ID, viewer, domain.RoleViewer)
	f.clock.Advance(time.Minute)
	f.join(project.ID, member, domain.RoleMember)
	f.clock.Advance(time.Minute)
	f.join(project.ID, admin, domain.RoleAdmin)
	f.join(project.ID, outsider, domain.RoleMember)
	require.NoError(t, f.svc.RemoveMember(as(owner), project.ID, outsider.ID))

	members, err := f.svc.ListMembers(as(viewer), project.ID)
	require.NoError(t, err)
	var users []string
	for _, m := range members {
		users = append(users, m.UserID)
	}
	assert.Equal(t, []string{owner.ID, admin.ID, member.ID, viewer.ID}, users)

	_, err = f.svc.ListMembers(as(outsider), project.ID)
	assert.True(t, errors.Is(err, domain.ErrPermissionDenied))
}
