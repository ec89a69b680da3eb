package models

import "github.com/pkg/errors"

// OutputClass represents one detection label.
type OutputClass struct {
	// The integer index returned by the model.
	Index int
	// The human-readable label.
	Name string
}

// OutputClassSet is an ordered, index-addressable class catalog.
//
// Detections carry a class index; the set maps it back to a name. Indices outside
// [0, Len()) are not part of the catalog and must be dropped by callers.
type OutputClassSet struct {
	// Class set identifier.
	Style ModelFamily
	// Classes that are supported and mappable, Classes[i].Index == i.
	Classes []OutputClass
	// nameToIdx for fast lookup by name.
	nameToIdx map[string]int
}

// NewOutputClassSet builds a class set from names in index order.
//
// Arguments:
//   - style: The family the names belong to.
//   - names: Class names, the position of each name is its index.
//
// Returns:
//   - *OutputClassSet: The catalog.
//   - error: An error if the list is empty or contains duplicate names.
func NewOutputClassSet(style ModelFamily, names ...string) (*OutputClassSet, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("class set %q has no classes", style)
	}

	set := &OutputClassSet{
		Style:   style,
		Classes: make([]OutputClass, len(names)),
	}
	for i, name := range names {
		set.Classes[i] = OutputClass{Index: i, Name: name}
	}
	if err := set.BuildNameIndexMap(); err != nil {
		return nil, err
	}
	return set, nil
}

func mustClassSet(style ModelFamily, names ...string) *OutputClassSet {
	set, err := NewOutputClassSet(style, names...)
	if err != nil {
		panic(err)
	}
	return set
}

// BuildNameIndexMap builds or rebuilds the name->index map.
func (s *OutputClassSet) BuildNameIndexMap() error {
	s.nameToIdx = make(map[string]int, len(s.Classes))
	for _, c := range s.Classes {
		// Unnamed classes hold a position only and cannot be looked up.
		if c.Name == "" {
			continue
		}
		if _, dup := s.nameToIdx[c.Name]; dup {
			return errors.Errorf("duplicate class name %q in set %q", c.Name, s.Style)
		}
		s.nameToIdx[c.Name] = c.Index
	}
	return nil
}

// Len returns the number of classes in the catalog.
func (s *OutputClassSet) Len() int {
	return len(s.Classes)
}

// Name returns the class name for idx, and false if idx is out of range.
func (s *OutputClassSet) Name(idx int) (string, bool) {
	if idx < 0 || idx >= len(s.Classes) {
		return "", false
	}
	return s.Classes[idx].Name, true
}

// Index returns the class index for name, and false if the name is unknown.
// Sets not created through NewOutputClassSet need BuildNameIndexMap first.
func (s *OutputClassSet) Index(name string) (int, bool) {
	idx, ok := s.nameToIdx[name]
	return idx, ok
}

// Names returns the class names in index order.
func (s *OutputClassSet) Names() []string {
	names := make([]string, len(s.Classes))
	for i, c := range s.Classes {
		names[i] = c.Name
	}
	return names
}

// cocoNames is the 80 COCO object classes in YOLO (zero-based) order.
var cocoNames = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog",
	"horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella",
	"handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite",
	"baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket", "bottle",
	"wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich",
	"orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch",
	"potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote",
	"keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// YOLOClasses is the 80 COCO classes (no background).
// YOLOv8/YOLO11 exports index directly into this zero-based list.
var YOLOClasses = mustClassSet(ModelFamilyYOLO, cocoNames...)

// COCOClasses is the 80 COCO classes plus "__background__" at index 0.
var COCOClasses = mustClassSet(ModelFamilyCOCO, append([]string{"__background__"}, cocoNames...)...)

// PascalVOCClasses is the 20 Pascal VOC classes + "__background__" at index 0.
var PascalVOCClasses = mustClassSet(ModelFamilyVOC,
	"__background__", "aeroplane", "bicycle", "bird", "boat", "bottle", "bus", "car", "cat",
	"chair", "cow", "diningtable", "dog", "horse", "motorbike", "person", "pottedplant",
	"sheep", "sofa", "train", "tvmonitor",
)

// Builtin returns the built-in class set for a family.
func Builtin(style ModelFamily) (*OutputClassSet, error) {
	switch style {
	case ModelFamilyYOLO:
		return YOLOClasses, nil
	case ModelFamilyCOCO:
		return COCOClasses, nil
	case ModelFamilyVOC:
		return PascalVOCClasses, nil
	default:
		return nil, errors.Errorf("style %q not registered", style)
	}
}
