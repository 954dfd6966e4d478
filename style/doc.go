// Package style turns tile features into labels.
//
// A Builder matches each feature against its rules and picks a placement
// strategy by geometry type: points are labeled where they are, lines along
// their longest straight run, polygons at their centroid.
package style
