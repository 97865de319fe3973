// Package users implements the offline user taste aggregation
// pipeline. Two signals feed each user vector: the mean of the movie
// vectors the user rated highly, and an embedding of the user's
// concatenated dialogue text. Users carrying both are alpha-mixed with
// the mix weight on the rating side; users carrying only one keep that
// signal as is. The mixed vector is written unnormalized.
package users
