package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/tests"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	"github.com/pkg/errors"
)

func TestAuthenticate(t *testing.T) {
	ctx := tests.Context()
	test := tests.New()
	defer test.TearDown()

	handler := &Auth{
		Config:   test.WebConfig,
		MasterDB: test.MasterDB,
	}

	credentials := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{
		Email:    "miner@example.com",
		Password: "secret",
	}

	// First call registers.
	request := jsonRequest(t, "POST", "http://test.com/api/auth", credentials)
	response := newMockResponseWriter()

	if err := handler.Authenticate(ctx, response, request, nil); err != nil {
		t.Fatalf("Failed to authenticate : %s", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("Response is not success : %d", response.StatusCode)
	}

	var registered struct {
		Message string `json:"message"`
		User    struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Token *string `json:"token"`
	}
	if err := json.NewDecoder(&response.buffer).Decode(&registered); err != nil {
		t.Fatalf("Failed to unmarshal response : %s", err)
	}
	if registered.User.ID == 0 {
		t.Fatalf("Registered user has no identifier")
	}
	if registered.Token != nil {
		t.Fatalf("Token issued at registration")
	}

	t.Logf("%s %s", tests.Success, registered.Message)

	// Second call hits the approval gate.
	request = jsonRequest(t, "POST", "http://test.com/api/auth", credentials)
	response = newMockResponseWriter()

	err := handler.Authenticate(ctx, response, request, nil)
	if status := requestErrorStatus(t, err, rewards.ErrNotApproved); status != http.StatusUnauthorized {
		t.Fatalf("Wrong status before approval : %d", status)
	}

	if err := rewards.UpdateApproval(ctx, test.MasterDB, registered.User.ID, true); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}

	// Approved, the same call logs in and issues the token.
	request = jsonRequest(t, "POST", "http://test.com/api/auth", credentials)
	response = newMockResponseWriter()

	if err := handler.Authenticate(ctx, response, request, nil); err != nil {
		t.Fatalf("Failed to log in : %s", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("Response is not success : %d", response.StatusCode)
	}

	var loggedIn struct {
		Message string  `json:"message"`
		User    profile `json:"user"`
		Token   string  `json:"token"`
	}
	if err := json.NewDecoder(&response.buffer).Decode(&loggedIn); err != nil {
		t.Fatalf("Failed to unmarshal response : %s", err)
	}
	if len(loggedIn.Token) == 0 {
		t.Fatalf("Login issued no token")
	}
	if loggedIn.User.ID != registered.User.ID {
		t.Fatalf("Identifier not stable : got %d, want %d", loggedIn.User.ID,
			registered.User.ID)
	}
}

func TestWithdrawalFlow(t *testing.T) {
	ctx := tests.Context()
	test := tests.New()
	defer test.TearDown()

	user := rewards.NewUser("flow@example.com", "secret", time.Now().UTC())
	if err := rewards.CreateUser(ctx, test.MasterDB, user); err != nil {
		t.Fatalf("Failed to create user : %s", err)
	}
	if err := rewards.UpdateApproval(ctx, test.MasterDB, user.ID, true); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}

	wh := &Withdrawals{MasterDB: test.MasterDB}
	params := map[string]string{"id": strconv.FormatInt(user.ID, 10)}
	url := fmt.Sprintf("http://test.com/api/withdrawal/approval/%d", user.ID)

	requestData := struct {
		Network string  `json:"network"`
		Address string  `json:"address"`
		Amount  float64 `json:"amount"`
	}{
		Network: "Ethereum",
		Address: "0x123456789012",
		Amount:  5,
	}

	// Submission without the withdrawal privilege is forbidden.
	request := jsonRequest(t, "POST", url, requestData)
	request.Header.Set(TokenHeader, user.APIToken)
	response := newMockResponseWriter()

	err := wh.Approval(ctx, response, request, params)
	if status := requestErrorStatus(t, err, rewards.ErrNotVIPApproved); status != http.StatusForbidden {
		t.Fatalf("Wrong status without privilege : %d", status)
	}

	// The operator grants the privilege.
	adh := &Admin{MasterDB: test.MasterDB, Now: time.Now}
	request = emptyRequest(t, "POST", fmt.Sprintf("http://test.com/admin/approve/withdrawal/%d", user.ID))
	response = newMockResponseWriter()

	if err := adh.ApproveWithdrawal(ctx, response, request, params); err != nil {
		t.Fatalf("Failed to grant privilege : %s", err)
	}
	if response.StatusCode != http.StatusFound {
		t.Fatalf("Grant did not redirect : %d", response.StatusCode)
	}

	// An empty body reports eligibility.
	request = emptyRequest(t, "POST", url)
	request.Header.Set(TokenHeader, user.APIToken)
	response = newMockResponseWriter()

	if err := wh.Approval(ctx, response, request, params); err != nil {
		t.Fatalf("Failed to check eligibility : %s", err)
	}

	var eligibility struct {
		AllowWithdraw bool `json:"allow_withdraw"`
	}
	if err := json.NewDecoder(&response.buffer).Decode(&eligibility); err != nil {
		t.Fatalf("Failed to unmarshal response : %s", err)
	}
	if !eligibility.AllowWithdraw {
		t.Fatalf("Privilege not reported")
	}

	// The same submission now succeeds.
	request = jsonRequest(t, "POST", url, requestData)
	request.Header.Set(TokenHeader, user.APIToken)
	response = newMockResponseWriter()

	if err := wh.Approval(ctx, response, request, params); err != nil {
		t.Fatalf("Failed to submit withdrawal : %s", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("Response is not success : %d", response.StatusCode)
	}

	var submitted struct {
		Status     string             `json:"status"`
		Withdrawal rewards.Withdrawal `json:"withdrawal"`
	}
	if err := json.NewDecoder(&response.buffer).Decode(&submitted); err != nil {
		t.Fatalf("Failed to unmarshal response : %s", err)
	}
	if submitted.Status != rewards.StatusRequested {
		t.Fatalf("Wrong initial status : %s", submitted.Status)
	}
	if submitted.Withdrawal.Amount != 5 {
		t.Fatalf("Wrong amount : %f", submitted.Withdrawal.Amount)
	}

	// The accumulator moved with the ledger.
	fetched, err := rewards.FetchUser(ctx, test.MasterDB, user.ID)
	if err != nil {
		t.Fatalf("Failed to fetch user : %s", err)
	}
	if fetched.TotalWithdrawn != 5 {
		t.Fatalf("Wrong accumulator : %f", fetched.TotalWithdrawn)
	}

	// History returns the single ledger row.
	request = emptyRequest(t, "POST", fmt.Sprintf("http://test.com/api/withdraw/history/%d", user.ID))
	request.Header.Set(TokenHeader, user.APIToken)
	response = newMockResponseWriter()

	if err := wh.History(ctx, response, request, params); err != nil {
		t.Fatalf("Failed to fetch history : %s", err)
	}

	var history struct {
		Withdrawals []rewards.Withdrawal `json:"withdrawals"`
	}
	if err := json.NewDecoder(&response.buffer).Decode(&history); err != nil {
		t.Fatalf("Failed to unmarshal response : %s", err)
	}
	if len(history.Withdrawals) != 1 {
		t.Fatalf("Wrong history length : %d", len(history.Withdrawals))
	}

	t.Logf("%s Full withdrawal flow", tests.Success)
}

func TestMiningHandlers(t *testing.T) {
	ctx := tests.Context()
	test := tests.New()
	defer test.TearDown()

	user := rewards.NewUser("rig@example.com", "secret", time.Now().UTC())
	if err := rewards.CreateUser(ctx, test.MasterDB, user); err != nil {
		t.Fatalf("Failed to create user : %s", err)
	}

	mh := &Mining{MasterDB: test.MasterDB}
	params := map[string]string{"id": strconv.FormatInt(user.ID, 10)}
	url := fmt.Sprintf("http://test.com/api/user/%d/mining", user.ID)

	// Reads before approval are a client error.
	request := emptyRequest(t, "POST", url)
	response := newMockResponseWriter()

	err := mh.Read(ctx, response, request, params)
	if status := requestErrorStatus(t, err, rewards.ErrNotApproved); status != http.StatusBadRequest {
		t.Fatalf("Wrong status for unapproved read : %d", status)
	}

	if err := rewards.UpdateApproval(ctx, test.MasterDB, user.ID, true); err != nil {
		t.Fatalf("Failed to approve : %s", err)
	}

	// Replacement is token gated.
	replacement := struct {
		MiningInfo rewards.MiningInfo `json:"miningInfo"`
	}{
		MiningInfo: rewards.MiningInfo{
			DailyBlocks:    2,
			SharesAccepted: 640,
			ActiveRigs:     1,
			TotalVolume:    12.25,
		},
	}

	request = jsonRequest(t, "PUT", url, replacement)
	request.Header.Set(TokenHeader, user.APIToken)
	response = newMockResponseWriter()

	if err := mh.Replace(ctx, response, request, params); err != nil {
		t.Fatalf("Failed to replace mining info : %s", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("Response is not success : %d", response.StatusCode)
	}

	// Reads accept the email as well as the id.
	request = emptyRequest(t, "POST", "http://test.com/api/user/rig@example.com/mining")
	response = newMockResponseWriter()

	if err := mh.Read(ctx, response, request, map[string]string{"id": "rig@example.com"}); err != nil {
		t.Fatalf("Failed to read mining info : %s", err)
	}

	var read struct {
		MiningInfo rewards.MiningInfo `json:"mining_info"`
	}
	if err := json.NewDecoder(&response.buffer).Decode(&read); err != nil {
		t.Fatalf("Failed to unmarshal response : %s", err)
	}
	if read.MiningInfo != replacement.MiningInfo {
		t.Fatalf("Wrong mining info : got %+v, want %+v", read.MiningInfo,
			replacement.MiningInfo)
	}
}

func TestAdminAccessCode(t *testing.T) {
	ctx := tests.Context()
	test := tests.New()
	defer test.TearDown()

	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	adh := &Admin{
		MasterDB: test.MasterDB,
		Now:      func() time.Time { return now },
	}

	user := rewards.NewUser("doomed@example.com", "secret", time.Now().UTC())
	if err := rewards.CreateUser(ctx, test.MasterDB, user); err != nil {
		t.Fatalf("Failed to create user : %s", err)
	}

	params := map[string]string{
		"accessCode": "02-9-2026",
		"id":         strconv.FormatInt(user.ID, 10),
	}

	// Yesterday's code is rejected before the account is touched.
	request := emptyRequest(t, "DELETE", "http://test.com/admin/hidden/02-9-2026/user/1")
	response := newMockResponseWriter()

	err := adh.Delete(ctx, response, request, params)
	if status := requestErrorStatus(t, err, rewards.ErrBadAccessCode); status != http.StatusForbidden {
		t.Fatalf("Wrong status for bad access code : %d", status)
	}

	if _, err := rewards.FetchUser(ctx, test.MasterDB, user.ID); err != nil {
		t.Fatalf("User removed despite bad access code : %s", err)
	}

	params["accessCode"] = rewards.AccessCode(now)

	request = emptyRequest(t, "DELETE", "http://test.com/admin/hidden/01-9-2026/user/1")
	response = newMockResponseWriter()

	if err := adh.Delete(ctx, response, request, params); err != nil {
		t.Fatalf("Failed to delete user : %s", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("Response is not success : %d", response.StatusCode)
	}

	// Deleting again reports not found.
	request = emptyRequest(t, "DELETE", "http://test.com/admin/hidden/01-9-2026/user/1")
	response = newMockResponseWriter()

	if err := adh.Delete(ctx, response, request, params); errors.Cause(err) != web.ErrNotFound {
		t.Fatalf("Wrong error for missing user : %v", err)
	}
}

func TestAdminCreateLicense(t *testing.T) {
	ctx := tests.Context()
	test := tests.New()
	defer test.TearDown()

	now := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	adh := &Admin{
		MasterDB: test.MasterDB,
		Now:      func() time.Time { return now },
	}

	requestData := struct {
		Email string `json:"email"`
	}{
		Email: "vip@example.com",
	}

	params := map[string]string{"accessCode": rewards.AccessCode(now)}

	request := jsonRequest(t, "POST", "http://test.com/admin/01-9-2026/create/license", requestData)
	response := newMockResponseWriter()

	if err := adh.CreateLicense(ctx, response, request, params); err != nil {
		t.Fatalf("Failed to create license : %s", err)
	}
	if response.StatusCode != http.StatusOK {
		t.Fatalf("Response is not success : %d", response.StatusCode)
	}

	var created struct {
		UserID  int64  `json:"user_id"`
		Email   string `json:"email"`
		License string `json:"license"`
	}
	if err := json.NewDecoder(&response.buffer).Decode(&created); err != nil {
		t.Fatalf("Failed to unmarshal response : %s", err)
	}
	if len(created.License) != rewards.LicenseKeyLength {
		t.Fatalf("Wrong license length : %d", len(created.License))
	}

	t.Logf("%s License %s for user %d", tests.Success, created.License, created.UserID)
}
