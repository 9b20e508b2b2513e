package controllers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/attorneymap/attorneymap/app/models"
)

func newLawyerApp(lawyers *fakeLawyers, firms *fakeFirms) *fiber.App {
	lc := NewAdminLawyerController(lawyers, firms)
	fc := NewAdminLawFirmController(firms)
	app := fiber.New()
	app.Get("/lawyers", lc.HandleList)
	app.Post("/lawyers", lc.HandleCreate)
	app.Get("/lawyers/:id", lc.HandleGet)
	app.Put("/lawyers/:id", lc.HandleUpdate)
	app.Delete("/lawyers/:id", lc.HandleDelete)
	app.Get("/law-firms", fc.HandleList)
	app.Post("/law-firms", fc.HandleCreate)
	app.Put("/law-firms/:id", fc.HandleUpdate)
	app.Delete("/law-firms/:id", fc.HandleDelete)
	return app
}

func newCityApp(cities *fakeCities) *fiber.App {
	cc := NewAdminCityController(cities)
	app := fiber.New()
	app.Get("/cities", cc.HandleList)
	app.Post("/cities", cc.HandleCreate)
	app.Get("/cities/:id", cc.HandleGet)
	app.Put("/cities/:id", cc.HandleUpdate)
	app.Delete("/cities/:id", cc.HandleDelete)
	app.Post("/cities/:id/zip-codes", cc.HandleAssignZip)
	app.Delete("/zip-codes/:zip/city", cc.HandleUnassignZip)
	return app
}

func TestAdminLawyer_CreateDefaults(t *testing.T) {
	firms := newFakeFirms(models.LawFirm{Name: "Lake Partners", Slug: "lake-partners", ZipCode: strPtr("05401")})
	app := newLawyerApp(newFakeLawyers(firms), firms)

	status, body := doJSON(t, app, fiber.MethodPost, "/lawyers", `{"name":"Ada Counsel","office_zip_code":"05401-1234","law_firm_id":1}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "ada-counsel", body["slug"])
	assert.Equal(t, "free", body["tier"])
	assert.Equal(t, "05401", body["office_zip_code"])
	assert.EqualValues(t, 1, body["law_firm_id"])

	status, body = doJSON(t, app, fiber.MethodPost, "/lawyers", `{"name":"Ada Counsel","tier":"Premium"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "ada-counsel-2", body["slug"])
	assert.Equal(t, "premium", body["tier"])
}

func TestAdminLawyer_CreateRejectsBadInput(t *testing.T) {
	firms := newFakeFirms()
	app := newLawyerApp(newFakeLawyers(firms), firms)

	tests := []struct {
		name string
		body string
	}{
		{"unknown tier", `{"name":"Ada","tier":"gold"}`},
		{"bad zip", `{"name":"Ada","office_zip_code":"none"}`},
		{"unknown firm", `{"name":"Ada","law_firm_id":9}`},
		{"missing name", `{"tier":"basic"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, fiber.MethodPost, "/lawyers", tt.body)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "bad_request", body["error"])
		})
	}
}

func TestAdminLawyer_UpdateClearsLocation(t *testing.T) {
	firms := newFakeFirms(models.LawFirm{Name: "Lake Partners", Slug: "lake-partners"})
	firmID := uint(1)
	lawyers := newFakeLawyers(firms, models.Lawyer{
		Name: "Ada Counsel", Slug: "ada-counsel", Tier: models.TierBasic,
		OfficeZipCode: strPtr("05401"), LawFirmID: &firmID,
	})
	app := newLawyerApp(lawyers, firms)

	status, body := doJSON(t, app, fiber.MethodPut, "/lawyers/1", `{"tier":"enhanced","office_zip_code":"","law_firm_id":0}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "enhanced", body["tier"])
	assert.Nil(t, body["office_zip_code"])
	assert.Nil(t, body["law_firm_id"])

	// Omitted fields are left alone.
	status, body = doJSON(t, app, fiber.MethodPut, "/lawyers/1", `{"name":"Ada B. Counsel"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "enhanced", body["tier"])
	assert.Equal(t, "ada-counsel", body["slug"])
}

func TestAdminLawyer_UpdateSlugConflict(t *testing.T) {
	firms := newFakeFirms()
	lawyers := newFakeLawyers(firms,
		models.Lawyer{Name: "Ada", Slug: "ada", Tier: models.TierFree},
		models.Lawyer{Name: "Bo", Slug: "bo", Tier: models.TierFree},
	)
	app := newLawyerApp(lawyers, firms)

	status, _ := doJSON(t, app, fiber.MethodPut, "/lawyers/2", `{"slug":"Ada"}`)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestAdminLawyer_ListFilters(t *testing.T) {
	firms := newFakeFirms(models.LawFirm{Name: "Lake Partners", Slug: "lake-partners", ZipCode: strPtr("05401")})
	firmID := uint(1)
	lawyers := newFakeLawyers(firms,
		models.Lawyer{Name: "Direct", Slug: "direct", Tier: models.TierPremium, OfficeZipCode: strPtr("05401")},
		models.Lawyer{Name: "Via Firm", Slug: "via-firm", Tier: models.TierPremium, LawFirmID: &firmID},
		models.Lawyer{Name: "Elsewhere", Slug: "elsewhere", Tier: models.TierPremium, OfficeZipCode: strPtr("10001")},
		models.Lawyer{Name: "Free", Slug: "free", Tier: models.TierFree, OfficeZipCode: strPtr("05401")},
	)
	app := newLawyerApp(lawyers, firms)

	status, body := doJSON(t, app, fiber.MethodGet, "/lawyers?tier=premium&zip=5401", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])

	status, body = doJSON(t, app, fiber.MethodGet, "/lawyers?law_firm_id=1", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, _ = doJSON(t, app, fiber.MethodGet, "/lawyers?tier=gold", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAdminLawyer_DeleteMissing(t *testing.T) {
	firms := newFakeFirms()
	app := newLawyerApp(newFakeLawyers(firms), firms)

	status, _ := doJSON(t, app, fiber.MethodDelete, "/lawyers/5", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	status, _ = doJSON(t, app, fiber.MethodDelete, "/lawyers/abc", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAdminLawFirm_CRUD(t *testing.T) {
	firms := newFakeFirms()
	app := newLawyerApp(newFakeLawyers(firms), firms)

	status, body := doJSON(t, app, fiber.MethodPost, "/law-firms", `{"name":"Lake & Partners","zip_code":"5401"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "lake-partners", body["slug"])
	assert.Equal(t, "05401", body["zip_code"])

	status, _ = doJSON(t, app, fiber.MethodPost, "/law-firms", `{"name":"Bad Zip","zip_code":"abc"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = doJSON(t, app, fiber.MethodPut, "/law-firms/1", `{"zip_code":"10001"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "10001", body["zip_code"])
	assert.Equal(t, "Lake & Partners", body["name"])

	status, body = doJSON(t, app, fiber.MethodGet, "/law-firms", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, _ = doJSON(t, app, fiber.MethodDelete, "/law-firms/1", "")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = doJSON(t, app, fiber.MethodDelete, "/law-firms/1", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestAdminCity_CreateSlugIncludesState(t *testing.T) {
	cities := newFakeCities()
	app := newCityApp(cities)

	status, body := doJSON(t, app, fiber.MethodPost, "/cities", `{"name":"Springfield","state_code":"il"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "springfield-il", body["slug"])
	assert.Equal(t, "IL", body["state_code"])

	status, body = doJSON(t, app, fiber.MethodPost, "/cities", `{"name":"Springfield","state_code":"IL"}`)
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "springfield-il-2", body["slug"])

	status, _ = doJSON(t, app, fiber.MethodPost, "/cities", `{"name":"Nowhere","state_code":"ILL"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = doJSON(t, app, fiber.MethodGet, "/cities?state=il", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 2, body["total"])
}

func TestAdminCity_ZipAssignment(t *testing.T) {
	cities := newFakeCities(models.City{Name: "Burlington", StateCode: "VT", Slug: "burlington-vt"})
	app := newCityApp(cities)

	status, body := doJSON(t, app, fiber.MethodPost, "/cities/1/zip-codes", `{"zip_code":"5401"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "05401", body["zip_code"])

	status, _ = doJSON(t, app, fiber.MethodPost, "/cities/1/zip-codes", `{"zip_code":"x"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	status, _ = doJSON(t, app, fiber.MethodPost, "/cities/7/zip-codes", `{"zip_code":"05402"}`)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = doJSON(t, app, fiber.MethodGet, "/cities/1", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []any{"05401"}, body["zip_codes"])

	status, _ = doJSON(t, app, fiber.MethodDelete, "/zip-codes/05401/city", "")
	assert.Equal(t, fiber.StatusNoContent, status)
	status, _ = doJSON(t, app, fiber.MethodDelete, "/zip-codes/05401/city", "")
	assert.Equal(t, fiber.StatusNotFound, status)
}
