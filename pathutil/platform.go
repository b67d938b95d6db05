package pathutil

import "os"

var platformSeparator = string(os.PathSeparator)
