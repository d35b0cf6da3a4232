package storage

import "testing"

func TestExtractObjectPath(t *testing.T) {
	cases := []struct {
		name   string
		rawURL string
		bucket string
		want   string
		ok     bool
	}{
		{
			name:   "presigned url with query",
			rawURL: "https://minio.local:9000/uploads/resumes/1/1699999999-cv.pdf?X-Amz-Expires=300&X-Amz-Signature=abc",
			bucket: "uploads",
			want:   "resumes/1/1699999999-cv.pdf",
			ok:     true,
		},
		{
			name:   "escaped file name",
			rawURL: "https://minio.local/uploads/resumes/2/my%20resume.pdf",
			bucket: "uploads",
			want:   "resumes/2/my resume.pdf",
			ok:     true,
		},
		{
			name:   "bucket not in path",
			rawURL: "https://cdn.example.com/resumes/1/cv.pdf",
			bucket: "uploads",
		},
		{
			name:   "empty object path after bucket",
			rawURL: "https://minio.local/uploads/",
			bucket: "uploads",
		},
		{
			name:   "empty url",
			rawURL: "",
			bucket: "uploads",
		},
		{
			name:   "empty bucket",
			rawURL: "https://minio.local/uploads/resumes/1/cv.pdf",
			bucket: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractObjectPath(tc.rawURL, tc.bucket)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if got != tc.want {
				t.Errorf("path = %q, want %q", got, tc.want)
			}
		})
	}
}
