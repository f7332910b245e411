package test

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rahmanfadhil/eduvod/core/course"
)

type courseTest struct {
	*TestEnv
}

var courseCount int

// createCourseOK creates and publishes a priced course as the admin
// user and returns the server's view of it.
func (ct *courseTest) createCourseOK(t *testing.T) course.Course {
	t.Helper()

	if err := Login(ct.Server, ct.AdminEmail, ct.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	courseCount++
	body := fmt.Sprintf(`{
		"name": "course %d",
		"description": "test course %d",
		"price": 100,
		"imageUrl": "http://example.com/image.png"
	}`, courseCount, courseCount)

	w, err := ct.Client().Post(ct.URL+"/courses", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create course: status code %s", w.Status)
	}

	var c course.Course
	if err := decode(w, &c); err != nil {
		t.Fatalf("cannot unmarshal created course: %v", err)
	}

	r, err := http.NewRequest(http.MethodPut, ct.URL+"/courses/"+c.ID, strings.NewReader(`{"published": true}`))
	if err != nil {
		t.Fatal(err)
	}

	w, err = ct.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't publish course: status code %s", w.Status)
	}

	if err := decode(w, &c); err != nil {
		t.Fatalf("cannot unmarshal published course: %v", err)
	}

	return c
}

// listCoursesOwnedOK checks that the student user owns exactly the
// given courses, compared by id.
func (ct *courseTest) listCoursesOwnedOK(t *testing.T, want []course.Course) {
	t.Helper()

	if err := Login(ct.Server, ct.UserEmail, ct.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(ct.Server)

	w, err := ct.Client().Get(ct.URL + "/courses/owned")
	if err != nil {
		t.Fatal(err)
	}

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't list owned courses: status code %s", w.Status)
	}

	var got []course.Course
	if err := decode(w, &got); err != nil {
		t.Fatalf("cannot unmarshal owned courses: %v", err)
	}

	wantIDs := make([]string, 0, len(want))
	for _, c := range want {
		wantIDs = append(wantIDs, c.ID)
	}
	gotIDs := make([]string, 0, len(got))
	for _, c := range got {
		gotIDs = append(gotIDs, c.ID)
	}

	sort.Strings(wantIDs)
	sort.Strings(gotIDs)

	if diff := cmp.Diff(wantIDs, gotIDs); diff != "" {
		t.Fatalf("unexpected owned courses (-want +got):\n%s", diff)
	}
}
