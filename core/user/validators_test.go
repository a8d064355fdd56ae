package user

import "testing"

func Test_passwordPolicyViolation(t *testing.T) {
	tests := []struct {
		name  string
		pwd   string
		attrs []string
		want  string
	}{
		{name: "too short", pwd: "abc12", want: pwdMinLenTag},
		{name: "whitespace", pwd: "abc 12345", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "similar to username", pwd: "teacher01", attrs: []string{"teacher"}, want: pwdAttrSimTag},
		{name: "similar to email", pwd: "Jane.Doe@x", attrs: []string{"", "jane.doe@x.io"}, want: pwdAttrSimTag},
		{name: "ok", pwd: "Sunflower-42", attrs: []string{"jdoe", "jdoe@edupath.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passwordPolicyViolation(tt.pwd, tt.attrs...); got != tt.want {
				t.Errorf("passwordPolicyViolation() = %q, want %q", got, tt.want)
			}
		})
	}
}
