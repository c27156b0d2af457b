package storage

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrForeignURL is returned when a URL was not issued by the configured store.
var ErrForeignURL = errors.New("image url does not belong to the configured storage")

// BlobRef identifies one object in blob storage.
type BlobRef struct {
	Bucket string
	Key    string
}

func (r BlobRef) String() string { return r.Bucket + "/" + r.Key }

// Locator converts between BlobRefs and the public URLs stored on documents.
// Swapping storage providers means supplying a different Locator.
type Locator interface {
	URL(ref BlobRef) string
	Ref(rawURL string) (BlobRef, error)
}

// PublicURLLocator maps a key to <base>/<key>. Alternate bases are accepted
// by Ref so URLs issued under an older public domain still resolve.
type PublicURLLocator struct {
	Bucket     string
	Base       string
	Alternates []string
}

// NewS3Locator picks the public base for an S3 bucket: CDN domain first,
// then a path-style custom endpoint, then the regional virtual-hosted URL.
func NewS3Locator(bucket, region, endpoint, cdnDomain string) PublicURLLocator {
	regional := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	global := fmt.Sprintf("https://%s.s3.amazonaws.com", bucket)

	switch {
	case cdnDomain != "":
		base := cdnDomain
		if !strings.Contains(base, "://") {
			base = "https://" + base
		}
		return PublicURLLocator{Bucket: bucket, Base: base, Alternates: []string{regional, global}}
	case endpoint != "":
		return PublicURLLocator{Bucket: bucket, Base: strings.TrimSuffix(endpoint, "/") + "/" + bucket}
	default:
		return PublicURLLocator{Bucket: bucket, Base: regional, Alternates: []string{global}}
	}
}

// NewMinioLocator serves objects path-style from the MinIO endpoint.
func NewMinioLocator(bucket, endpoint string, secure bool, publicBase string) PublicURLLocator {
	if publicBase != "" {
		return PublicURLLocator{Bucket: bucket, Base: strings.TrimSuffix(publicBase, "/")}
	}
	scheme := "http"
	if secure {
		scheme = "https"
	}
	return PublicURLLocator{Bucket: bucket, Base: fmt.Sprintf("%s://%s/%s", scheme, endpoint, bucket)}
}

func (l PublicURLLocator) URL(ref BlobRef) string {
	segments := strings.Split(ref.Key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(l.Base, "/") + "/" + strings.Join(segments, "/")
}

func (l PublicURLLocator) Ref(rawURL string) (BlobRef, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return BlobRef{}, ErrForeignURL
	}
	u.RawQuery = ""
	u.Fragment = ""
	clean := u.String()

	for _, base := range append([]string{l.Base}, l.Alternates...) {
		prefix := strings.TrimSuffix(base, "/") + "/"
		if !strings.HasPrefix(clean, prefix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimPrefix(clean, prefix))
		if err != nil || key == "" || strings.Contains(key, "..") {
			return BlobRef{}, ErrForeignURL
		}
		return BlobRef{Bucket: l.Bucket, Key: key}, nil
	}
	return BlobRef{}, ErrForeignURL
}
