// Package web embeds the seed welfare-service dataset. Deployments ship
// a full welfare_data.json next to the binary; when that file is absent
// the embedded seed keeps the catalog endpoints working.
package web

import (
	_ "embed"
)

//go:embed data/welfare_data.json
var welfareData []byte

// WelfareData returns the embedded seed catalog document.
func WelfareData() []byte {
	return welfareData
}
