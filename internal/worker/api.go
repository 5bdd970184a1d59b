package worker

import (
	"net/http"

	"github.com/tidwall/sjson"

	"VoyageBot/internal/model"
)

// The remote operations an account performs. Each returns an immutable descriptor.

func (c Config) profileRequest() model.Request {
	return model.Request{URL: c.url(c.Endpoints.Profile), Method: http.MethodGet}
}

func (c Config) pointsRequest() model.Request {
	return model.Request{URL: c.url(c.Endpoints.Points), Method: http.MethodGet}
}

func (c Config) checkinStatusRequest() model.Request {
	return model.Request{URL: c.url(c.Endpoints.CheckinStatus), Method: http.MethodGet}
}

func (c Config) checkinRequest() model.Request {
	return model.Request{URL: c.url(c.Endpoints.Checkin), Method: http.MethodPost}
}

func (c Config) onboardRequest(name, refCode string) (model.Request, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "display_name", name)
	if err != nil {
		return model.Request{}, err
	}
	body, err = sjson.SetBytes(body, "invite_code", refCode)
	if err != nil {
		return model.Request{}, err
	}
	return model.Request{URL: c.url(c.Endpoints.Onboard), Method: http.MethodPost, Body: body}, nil
}
