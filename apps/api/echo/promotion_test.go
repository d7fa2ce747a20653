package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/core/promotion"
	testutil "github.com/kazimoto/shule/tests"
)

func Test_promotionApi_promoteDemote(t *testing.T) {
	env := setupAPI(t)

	admin := testutil.CreateProfile(t, env.profileRepo, "uid-admin", "admin@test.cd", "Admin",
		[]string{profile.RoleAdmin}, profile.StatusActive, true)
	teacher := testutil.CreateProfile(t, env.profileRepo, "uid-teach", "teach@test.cd", "Teach",
		[]string{profile.RoleTeacher}, profile.StatusActive, true)
	super := testutil.CreateProfile(t, env.profileRepo, "uid-super", "super@test.cd", "Super",
		[]string{profile.RoleSuperAdmin}, profile.StatusActive, true)
	adminToken := getToken(t, admin.ID, admin.Email, true)
	superToken := getToken(t, super.ID, super.Email, true)

	body := marchallObj(t, map[string]string{"reason": "expanding the admin team"})

	// promote the teacher
	req, rec := newAuthRequest(http.MethodPost, "/v1/admins/"+teacher.ID+"/promote", superToken, body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp promotionResponse
	decodeObj(t, rec.Body.Bytes(), &resp)
	assert.True(t, resp.Success)
	if assert.NotNil(t, resp.Promotion) {
		assert.Equal(t, promotion.ActionPromote, resp.Promotion.Action)
		assert.Equal(t, super.Email, resp.Promotion.ActorEmail)
		assert.Equal(t, "expanding the admin team", resp.Promotion.Reason)
	}

	// promoting again is a structured failure, not a 5xx
	req, rec = newAuthRequest(http.MethodPost, "/v1/admins/"+teacher.ID+"/promote", superToken, body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	decodeObj(t, rec.Body.Bytes(), &resp)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	// a super admin cannot be demoted over HTTP
	req, rec = newAuthRequest(http.MethodPost, "/v1/admins/"+super.ID+"/demote", superToken, body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	decodeObj(t, rec.Body.Bytes(), &resp)
	assert.False(t, resp.Success)

	// demote the freshly promoted admin
	req, rec = newAuthRequest(http.MethodPost, "/v1/admins/"+teacher.ID+"/demote", superToken, body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the audit trail recorded both transitions
	req, rec = newAuthRequest(http.MethodGet, "/v1/admins/"+teacher.ID+"/history", adminToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var records []promotion.Record
	decodeObj(t, rec.Body.Bytes(), &records)
	assert.Len(t, records, 2)
}

func Test_promotionApi_listAdmins(t *testing.T) {
	env := setupAPI(t)

	admin := testutil.CreateProfile(t, env.profileRepo, "uid-admin", "admin@test.cd", "Admin",
		[]string{profile.RoleAdmin}, profile.StatusActive, true)
	testutil.CreateProfile(t, env.profileRepo, "uid-super", "super@test.cd", "Super",
		[]string{profile.RoleSuperAdmin}, profile.StatusActive, true)
	testutil.CreateProfile(t, env.profileRepo, "uid-parent", "parent@test.cd", "Parent",
		[]string{profile.RoleParent}, profile.StatusActive, true)
	adminToken := getToken(t, admin.ID, admin.Email, true)

	req, rec := newAuthRequest(http.MethodGet, "/v1/admins", adminToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var admins []profile.Profile
	decodeObj(t, rec.Body.Bytes(), &admins)
	if assert.Len(t, admins, 2) {
		assert.Equal(t, "uid-super", admins[0].ID, "super admin ranks first")
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/admins/promotable", adminToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var promotable []profile.Profile
	decodeObj(t, rec.Body.Bytes(), &promotable)
	if assert.Len(t, promotable, 1) {
		assert.Equal(t, "uid-parent", promotable[0].ID)
	}
}

func Test_promotionApi_authz(t *testing.T) {
	env := setupAPI(t)

	teacher := testutil.CreateProfile(t, env.profileRepo, "uid-teach", "teach@test.cd", "Teach",
		[]string{profile.RoleTeacher}, profile.StatusActive, true)
	admin := testutil.CreateProfile(t, env.profileRepo, "uid-admin", "admin@test.cd", "Admin",
		[]string{profile.RoleAdmin}, profile.StatusActive, true)
	readOnlySuper := testutil.CreateProfile(t, env.profileRepo, "uid-ro", "ro@test.cd", "ReadOnly",
		[]string{profile.RoleSuperAdmin}, profile.StatusActive, false)

	body := marchallObj(t, map[string]string{"reason": ""})

	// a teacher cannot reach the admin surface at all
	req, rec := newAuthRequest(http.MethodPost, "/v1/admins/"+teacher.ID+"/promote",
		getToken(t, teacher.ID, teacher.Email, true), body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// an admin can list but not mutate; mutations are gated one tier above
	adminToken := getToken(t, admin.ID, admin.Email, true)
	req, rec = newAuthRequest(http.MethodGet, "/v1/admins", adminToken)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/admins/"+teacher.ID+"/promote", adminToken, body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// even a super admin needs effective write access to mutate
	roToken := getToken(t, readOnlySuper.ID, readOnlySuper.Email, true)
	req, rec = newAuthRequest(http.MethodPost, "/v1/admins/"+teacher.ID+"/promote", roToken, body)
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func Test_promotionApi_rateLimit(t *testing.T) {
	env := setupAPI(t)

	body := marchallObj(t, map[string]string{"reason": ""})

	// admission control runs before auth, so even unauthenticated callers
	// burn mutation budget and are eventually cut off
	for i := 0; i < adminMutateLimit; i++ {
		req, rec := newRequest(http.MethodPost, "/v1/admins/uid-x/promote", body)
		req.Header.Set("X-Forwarded-For", "9.9.9.9")
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "attempt #%d", i+1)
	}

	req, rec := newRequest(http.MethodPost, "/v1/admins/uid-x/promote", body)
	req.Header.Set("X-Forwarded-For", "9.9.9.9")
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// the read surface has its own, separate budget
	req, rec = newRequest(http.MethodGet, "/v1/admins")
	req.Header.Set("X-Forwarded-For", "9.9.9.9")
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
