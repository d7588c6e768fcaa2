package route

import (
	"errors"
	"reflect"
	"testing"

	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/model"
	"github.com/culpastquestions-arch/caleb-university-resource-bank-project/internal/policy"
)

func testPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.Parse([]byte(`{"departments":{"Law":{"levels":["Contract Law"],"shape":["subject","session"]}}}`))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParse(t *testing.T) {
	pol := testPolicy(t)

	tests := []struct {
		name string
		path string
		want Route
		ct   model.ContentType
	}{
		{"root", "/", Home{}, model.Folders},
		{"empty", "", Home{}, model.Folders},
		{"department", "/Computer Science/", Department{Name: "Computer Science"}, model.Folders},
		{
			"level", "/Computer Science/100 Level",
			Stage{Department: "Computer Science", Trail: []string{"100 Level"}, Kind: policy.KindLevel, Next: policy.KindSemester},
			model.Folders,
		},
		{
			"semester", "/Computer Science/100 Level/First Semester",
			Stage{Department: "Computer Science", Trail: []string{"100 Level", "First Semester"}, Kind: policy.KindSemester, Next: policy.KindSession},
			model.Folders,
		},
		{
			"session", "/Computer Science/100 Level/First Semester/2024~25 Session",
			Documents{Department: "Computer Science", Trail: []string{"100 Level", "First Semester", "2024~25 Session"}, Kind: policy.KindSession},
			model.Files,
		},
		{
			"shorter shape: subject", "/Law/Contract Law",
			Stage{Department: "Law", Trail: []string{"Contract Law"}, Kind: policy.KindSubject, Next: policy.KindSession},
			model.Folders,
		},
		{
			"shorter shape: session", "/Law/Contract Law/2023~24",
			Documents{Department: "Law", Trail: []string{"Contract Law", "2023~24"}, Kind: policy.KindSession},
			model.Files,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.path, pol)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.path, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %#v, want %#v", tt.path, got, tt.want)
			}
			if ct := ContentTypeOf(got); ct != tt.ct {
				t.Errorf("ContentTypeOf = %q, want %q", ct, tt.ct)
			}
		})
	}
}

func TestParse_TooDeep(t *testing.T) {
	pol := testPolicy(t)
	for _, path := range []string{
		"/Law/Contract Law/2023~24/extra",
		"/Computer Science/100 Level/First Semester/2024~25 Session/extra",
	} {
		if _, err := Parse(path, pol); !errors.Is(err, ErrTooDeep) {
			t.Errorf("Parse(%q) = %v, want ErrTooDeep", path, err)
		}
	}
}

func TestParse_NilPolicyUsesDefaultShape(t *testing.T) {
	r, err := Parse("/Law/100 Level/First Semester/2024~25", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(Documents); !ok {
		t.Errorf("expected Documents, got %T", r)
	}
}

func TestRoutePath(t *testing.T) {
	r, _ := Parse("//Law//Contract Law/", testPolicy(t))
	if r.Path() != "/Law/Contract Law" {
		t.Errorf("Path = %q", r.Path())
	}
	if (Home{}).Path() != "/" {
		t.Error("home path should be /")
	}
}
