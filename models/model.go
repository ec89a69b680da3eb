// Package models - Class catalogs for detection model outputs.
package models

// ModelFamily identifies the naming convention / dataset a catalog follows.
type ModelFamily string

const (
	// ModelFamilyCOCO is the 80 COCO classes + background.
	ModelFamilyCOCO ModelFamily = "coco"
	// ModelFamilyYOLO is the 80 COCO classes without a background class.
	ModelFamilyYOLO ModelFamily = "yolo"
	// ModelFamilyVOC is the 20 Pascal VOC classes + background.
	ModelFamilyVOC ModelFamily = "voc"
	// ModelFamilyCustom is a catalog loaded from a names file.
	ModelFamilyCustom ModelFamily = "custom"
)
