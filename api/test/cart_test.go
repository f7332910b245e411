package test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

type cartTest struct {
	*TestEnv
}

func (rt *cartTest) createItemOK(t *testing.T, courseID string) {
	t.Helper()

	if err := Login(rt.Server, rt.UserEmail, rt.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(rt.Server)

	body := fmt.Sprintf(`{"courseId": %q}`, courseID)

	r, err := http.NewRequest(http.MethodPut, rt.URL+"/cart/items", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	w, err := rt.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't add course[%s] to cart: status code %s", courseID, w.Status)
	}
}
