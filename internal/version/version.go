package version

// Version is the current version of notefeed.
const Version = "0.1.0"
