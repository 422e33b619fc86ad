package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRegion = errors.New("unknown anatomic region")

// Region 系统解剖复核区域（Klein & Guilleman 顺序）
type Region string

const (
	RegionDevices     Region = "devices"
	RegionChestWall   Region = "chest_wall"
	RegionMediastinum Region = "mediastinum"
	RegionHila        Region = "hila"
	RegionLungs       Region = "lungs"
	RegionAirways     Region = "airways"
	RegionPleura      Region = "pleura"
)

var RegionOrder = []Region{
	RegionDevices,
	RegionChestWall,
	RegionMediastinum,
	RegionHila,
	RegionLungs,
	RegionAirways,
	RegionPleura,
}

// Title "chest_wall" -> "Chest Wall"
func (r Region) Title() string {
	parts := strings.Split(string(r), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func ParseRegion(name string) (Region, error) {
	r := Region(strings.ToLower(strings.TrimSpace(strings.ReplaceAll(name, "-", "_"))))
	for _, known := range RegionOrder {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// RegionReview 单个区域的复核结果
type RegionReview struct {
	Findings string            `json:"findings"`
	Checked  []string          `json:"checked,omitempty"`
	Choices  map[string]string `json:"choices,omitempty"`
}
