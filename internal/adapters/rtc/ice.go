// Package rtc exposes the peer connection settings browsers need before
// they start negotiating through the relay.
package rtc

import (
	"fmt"
	"net/http"

	"github.com/dkeye/Assist/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
)

// Configuration converts the configured ICE servers.
func Configuration(servers []config.ICEServer) webrtc.Configuration {
	out := webrtc.Configuration{
		ICEServers: make([]webrtc.ICEServer, 0, len(servers)),
	}
	for _, s := range servers {
		ice := webrtc.ICEServer{URLs: append([]string(nil), s.URLs...)}
		if s.Username != "" {
			ice.Username = s.Username
			ice.Credential = s.Credential
			ice.CredentialType = webrtc.ICECredentialTypePassword
		}
		out.ICEServers = append(out.ICEServers, ice)
	}
	return out
}

type iceServerView struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// ConfigHandler serves the RTCConfiguration subset the browser passes to
// new RTCPeerConnection().
func ConfigHandler(cfg webrtc.Configuration) gin.HandlerFunc {
	views := make([]iceServerView, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		v := iceServerView{URLs: s.URLs, Username: s.Username}
		if s.Username != "" {
			v.Credential = fmt.Sprint(s.Credential)
		}
		views = append(views, v)
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"iceServers": views})
	}
}
