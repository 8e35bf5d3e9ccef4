package version

// Current is the released version of polaris-autoingest, without a "v" prefix.
const Current = "0.3.1"
