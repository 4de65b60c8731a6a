package classifier

// DefaultLabels is the class label table the packaged model was trained on.
var DefaultLabels = []string{"jari 1", "jari 2"}
