package gcode

// LayerSplitter groups motion lines into layers. Layer representation is up
// to the implementation.
type LayerSplitter[L any] interface {
	SplitLayers(lines []string) []L
}

// SplitLayers hands raw (not processed) movements of the document to the
// splitter. Result is never nil.
func SplitLayers[L any](rm *RegionMap, s LayerSplitter[L]) []L {
	layers := s.SplitLayers(rm.Lines(RegionMovements))
	if layers == nil {
		layers = []L{}
	}
	return layers
}
