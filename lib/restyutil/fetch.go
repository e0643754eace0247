package restyutil

import (
	"context"
	"encoding/json"

	"boxoffice-tracker/lib/fetcherr"

	"github.com/go-resty/resty/v2"
)

// Check maps the outcome of a resty call onto the fetch error kinds, a
// failed round trip is a transport error and any non 2xx status an http
// error.
func Check(url string, res *resty.Response, err error) error {
	if err != nil {
		return fetcherr.Transport(url, err)
	}
	if !res.IsSuccess() {
		return fetcherr.HTTP(url, res.StatusCode())
	}
	return nil
}

// GetBody performs a GET and returns the body of a successful response.
func GetBody(ctx context.Context, client *resty.Client, url string) ([]byte, error) {
	res, err := client.R().SetContext(ctx).Get(url)
	err = Check(url, res, err)
	if err != nil {
		return nil, err
	}
	return res.Body(), nil
}

// GetJSON performs a GET and decodes the body into out.
func GetJSON(ctx context.Context, client *resty.Client, url string, out any) error {
	body, err := GetBody(ctx, client, url)
	if err != nil {
		return err
	}
	err = json.Unmarshal(body, out)
	if err != nil {
		return fetcherr.Decode(url, err)
	}
	return nil
}
