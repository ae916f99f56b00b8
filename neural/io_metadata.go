package neural

// IODescriptor describes a controller input or output for UI display.
type IODescriptor struct {
	ID          string  // Unique identifier
	Label       string  // Display name
	Description string  // Tooltip/extended description
	Min         float32 // Minimum value
	Max         float32 // Maximum value
	IsCentered  bool    // True for centered bar display (e.g., -1 to +1)
}

// InputDescriptors returns metadata for the controller inputs, in the order
// the episode controller feeds them.
func InputDescriptors() []IODescriptor {
	return []IODescriptor{
		{ID: "distance", Label: "Dist", Description: "Distance to the next cell center, in cells", Min: 0, Max: 1.5},
		{ID: "bearing", Label: "Bearing", Description: "Turn needed to face the next cell / 180", Min: -1, Max: 1, IsCentered: true},
		{ID: "speed", Label: "Speed", Description: "Current speed, cells per second", Min: 0, Max: 2},
	}
}

// OutputDescriptors returns metadata for the two wheel outputs.
func OutputDescriptors() []IODescriptor {
	return []IODescriptor{
		{ID: "left", Label: "Left", Description: "Left wheel drive", Min: -1, Max: 1, IsCentered: true},
		{ID: "right", Label: "Right", Description: "Right wheel drive", Min: -1, Max: 1, IsCentered: true},
	}
}

// Labels returns the display labels of descs.
func Labels(descs []IODescriptor) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.Label
	}
	return out
}
